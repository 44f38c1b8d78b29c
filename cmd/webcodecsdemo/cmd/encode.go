package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
	"github.com/webcodecs-go/webcodecs-core/internal/pipeline"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Drive an encoder pipeline over a raw input file",
	Long: `encode reads fixed-size raw frames (video) or sample blocks (audio)
from --in, pushes each through a configured VideoEncoder or
AudioEncoder, and appends every produced chunk to --out.

Examples:
  # 4 frames of 16x16 I420 video
  webcodecsdemo encode --kind video --codec avc1.42001e --width 16 --height 16 --in frames.i420 --out chunks.bin

  # Mono f32 audio, 480 frames per block
  webcodecsdemo encode --kind audio --codec opus --sample-rate 48000 --channels 1 --frames-per-block 480 --in audio.f32 --out chunks.bin`,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().String("kind", "video", "video or audio")
	encodeCmd.Flags().String("codec", "", "codec string (required)")
	encodeCmd.Flags().String("in", "", "raw input file (required)")
	encodeCmd.Flags().String("out", "", "chunk output file (required)")
	encodeCmd.Flags().Int("width", 0, "coded width (video)")
	encodeCmd.Flags().Int("height", 0, "coded height (video)")
	encodeCmd.Flags().String("pixel-format", string(codec.PixelFormatI420), "pixel format (video)")
	encodeCmd.Flags().Int("sample-rate", 48000, "sample rate in Hz (audio)")
	encodeCmd.Flags().Int("channels", 2, "number of channels (audio)")
	encodeCmd.Flags().String("sample-format", string(media.SampleFormatF32), "sample format (audio)")
	encodeCmd.Flags().Int("frames-per-block", 480, "audio frames per encode() call (audio)")
}

func runEncode(cmd *cobra.Command, _ []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	codecStr, _ := cmd.Flags().GetString("codec")
	inPath, _ := cmd.Flags().GetString("in")
	outPath, _ := cmd.Flags().GetString("out")
	if codecStr == "" || inPath == "" || outPath == "" {
		return fmt.Errorf("--codec, --in and --out are required")
	}

	factory, ok := engine.Lookup(cfg.Engine.Kind)
	if !ok {
		return fmt.Errorf("no engine registered under engine.kind=%q", cfg.Engine.Kind)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	switch kind {
	case "video":
		return encodeVideo(cmd, factory, in, out, codecStr)
	case "audio":
		return encodeAudio(cmd, factory, in, out, codecStr)
	default:
		return fmt.Errorf("unrecognized --kind %q", kind)
	}
}

func encodeVideo(cmd *cobra.Command, factory engine.Factory, in io.Reader, out io.Writer, codecStr string) error {
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	pixelFormat, _ := cmd.Flags().GetString("pixel-format")
	if width <= 0 || height <= 0 {
		return fmt.Errorf("--width and --height are required for --kind video")
	}
	frameSize, ok := codec.AllocationSize(codec.PixelFormat(pixelFormat), width, height)
	if !ok {
		return fmt.Errorf("unrecognized --pixel-format %q", pixelFormat)
	}

	var writeErr error
	var timestamp int64
	enc := pipeline.NewVideoEncoder(factory, cfg.Queue, pipeline.Callbacks{
		OnOutput: func(e pipeline.OutputEvent) {
			chunk := e.VideoChunk
			payload := make([]byte, chunk.ByteLength())
			if err := chunk.CopyTo(payload); err != nil && writeErr == nil {
				writeErr = err
				return
			}
			if err := writeChunkRecord(out, chunkRecord{Type: chunk.Type(), Timestamp: chunk.Timestamp(), Payload: payload}); err != nil && writeErr == nil {
				writeErr = err
			}
		},
		OnError: func(err error) { logger().Error("video encoder error", slog.String("error", err.Error())) },
	})
	defer enc.Close()

	if err := enc.Configure(pipeline.VideoEncoderConfig{Codec: codecStr, Width: width, Height: height}); err != nil {
		return fmt.Errorf("configuring video encoder: %w", err)
	}

	buf := make([]byte, frameSize)
	frameCount := 0
	for {
		if _, err := io.ReadFull(in, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return fmt.Errorf("reading frame: %w", err)
		}
		frame, err := media.NewVideoFrame(buf, media.VideoFrameInit{
			Format: codec.PixelFormat(pixelFormat), CodedWidth: width, CodedHeight: height, Timestamp: timestamp,
		})
		if err != nil {
			return fmt.Errorf("constructing frame %d: %w", frameCount, err)
		}
		if err := enc.Encode(frame); err != nil {
			return fmt.Errorf("encoding frame %d: %w", frameCount, err)
		}
		timestamp += 1_000_000 / 30
		frameCount++
	}

	if err := enc.Flush(context.Background()); err != nil {
		return fmt.Errorf("flushing encoder: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("writing chunks: %w", writeErr)
	}
	logger().Info("encode complete", slog.Int("frames", frameCount))
	return nil
}

func encodeAudio(cmd *cobra.Command, factory engine.Factory, in io.Reader, out io.Writer, codecStr string) error {
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	sampleFormat, _ := cmd.Flags().GetString("sample-format")
	framesPerBlock, _ := cmd.Flags().GetInt("frames-per-block")
	if framesPerBlock <= 0 {
		return fmt.Errorf("--frames-per-block must be > 0")
	}
	sampleBytes := media.SampleByteSize(media.SampleFormat(sampleFormat))
	if sampleBytes == 0 {
		return fmt.Errorf("unrecognized --sample-format %q", sampleFormat)
	}
	blockSize := framesPerBlock * channels * sampleBytes

	var writeErr error
	var timestamp int64
	enc := pipeline.NewAudioEncoder(factory, cfg.Queue, pipeline.Callbacks{
		OnOutput: func(e pipeline.OutputEvent) {
			chunk := e.AudioChunk
			payload := make([]byte, chunk.ByteLength())
			if err := chunk.CopyTo(payload); err != nil && writeErr == nil {
				writeErr = err
				return
			}
			if err := writeChunkRecord(out, chunkRecord{Type: chunk.Type(), Timestamp: chunk.Timestamp(), Payload: payload}); err != nil && writeErr == nil {
				writeErr = err
			}
		},
		OnError: func(err error) { logger().Error("audio encoder error", slog.String("error", err.Error())) },
	})
	defer enc.Close()

	if err := enc.Configure(pipeline.AudioEncoderConfig{Codec: codecStr, SampleRate: sampleRate, NumberOfChannels: channels}); err != nil {
		return fmt.Errorf("configuring audio encoder: %w", err)
	}

	buf := make([]byte, blockSize)
	blockCount := 0
	for {
		if _, err := io.ReadFull(in, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return fmt.Errorf("reading block: %w", err)
		}
		data, err := media.NewAudioData(buf, media.AudioDataInit{
			Format: media.SampleFormat(sampleFormat), SampleRate: sampleRate,
			NumberOfFrames: framesPerBlock, NumberOfChannels: channels, Timestamp: timestamp,
		})
		if err != nil {
			return fmt.Errorf("constructing block %d: %w", blockCount, err)
		}
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encoding block %d: %w", blockCount, err)
		}
		timestamp += int64(framesPerBlock) * 1_000_000 / int64(sampleRate)
		blockCount++
	}

	if err := enc.Flush(context.Background()); err != nil {
		return fmt.Errorf("flushing encoder: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("writing chunks: %w", writeErr)
	}
	logger().Info("encode complete", slog.Int("blocks", blockCount))
	return nil
}
