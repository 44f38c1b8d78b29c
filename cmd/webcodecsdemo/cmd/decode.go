package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
	"github.com/webcodecs-go/webcodecs-core/internal/pipeline"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Drive a decoder pipeline over a chunk file produced by encode",
	Long: `decode reads the chunk records --in was written with by "encode",
pushes each through a configured VideoDecoder or AudioDecoder, and
appends every produced frame/block's raw bytes to --out.

Examples:
  webcodecsdemo decode --kind video --codec avc1.42001e --in chunks.bin --out frames.i420
  webcodecsdemo decode --kind audio --codec opus --sample-rate 48000 --channels 1 --in chunks.bin --out audio.f32`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().String("kind", "video", "video or audio")
	decodeCmd.Flags().String("codec", "", "codec string (required)")
	decodeCmd.Flags().String("in", "", "chunk input file (required)")
	decodeCmd.Flags().String("out", "", "raw output file (required)")
	decodeCmd.Flags().Int("sample-rate", 48000, "sample rate in Hz (audio)")
	decodeCmd.Flags().Int("channels", 2, "number of channels (audio)")
}

func runDecode(cmd *cobra.Command, _ []string) error {
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
		return decodeVideo(factory, in, out, codecStr)
	case "audio":
		return decodeAudio(cmd, factory, in, out, codecStr)
	default:
		return fmt.Errorf("unrecognized --kind %q", kind)
	}
}

func decodeVideo(factory engine.Factory, in io.Reader, out io.Writer, codecStr string) error {
	var writeErr error
	frameCount := 0
	dec := pipeline.NewVideoDecoder(factory, cfg.Queue, pipeline.Callbacks{
		OnOutput: func(e pipeline.OutputEvent) {
			frame := e.VideoFrame
			defer frame.Close()
			n, err := frame.AllocationSize(media.CopyToOptions{})
			if err != nil {
				if writeErr == nil {
					writeErr = err
				}
				return
			}
			buf := make([]byte, n)
			if _, err := frame.CopyTo(buf, media.CopyToOptions{}); err != nil {
				if writeErr == nil {
					writeErr = err
				}
				return
			}
			if _, err := out.Write(buf); err != nil && writeErr == nil {
				writeErr = err
				return
			}
			frameCount++
		},
		OnError: func(err error) { logger().Error("video decoder error", slog.String("error", err.Error())) },
	})
	defer dec.Close()

	if err := dec.Configure(pipeline.VideoDecoderConfig{Codec: codecStr}); err != nil {
		return fmt.Errorf("configuring video decoder: %w", err)
	}

	chunkCount := 0
	for {
		rec, err := readChunkRecord(in)
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("reading chunk %d: %w", chunkCount, err)
		}
		chunk, err := media.NewEncodedVideoChunk(rec.Payload, media.EncodedVideoChunkInit{Type: rec.Type, Timestamp: rec.Timestamp})
		if err != nil {
			return fmt.Errorf("constructing chunk %d: %w", chunkCount, err)
		}
		if err := dec.Decode(chunk); err != nil {
			return fmt.Errorf("decoding chunk %d: %w", chunkCount, err)
		}
		chunkCount++
	}

	if err := dec.Flush(context.Background()); err != nil {
		return fmt.Errorf("flushing decoder: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("writing frames: %w", writeErr)
	}
	logger().Info("decode complete", slog.Int("chunks", chunkCount), slog.Int("frames", frameCount))
	return nil
}

func decodeAudio(cmd *cobra.Command, factory engine.Factory, in io.Reader, out io.Writer, codecStr string) error {
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")

	var writeErr error
	blockCount := 0
	dec := pipeline.NewAudioDecoder(factory, cfg.Queue, pipeline.Callbacks{
		OnOutput: func(e pipeline.OutputEvent) {
			data := e.AudioData
			defer data.Close()
			plane0 := 0
			n, err := data.AllocationSize(media.AudioCopyToOptions{PlaneIndex: &plane0})
			if err != nil {
				if writeErr == nil {
					writeErr = err
				}
				return
			}
			buf := make([]byte, n)
			if err := data.CopyTo(buf, media.AudioCopyToOptions{PlaneIndex: &plane0}); err != nil {
				if writeErr == nil {
					writeErr = err
				}
				return
			}
			if _, err := out.Write(buf); err != nil && writeErr == nil {
				writeErr = err
				return
			}
			blockCount++
		},
		OnError: func(err error) { logger().Error("audio decoder error", slog.String("error", err.Error())) },
	})
	defer dec.Close()

	if err := dec.Configure(pipeline.AudioDecoderConfig{Codec: codecStr, SampleRate: sampleRate, NumberOfChannels: channels}); err != nil {
		return fmt.Errorf("configuring audio decoder: %w", err)
	}

	chunkCount := 0
	for {
		rec, err := readChunkRecord(in)
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("reading chunk %d: %w", chunkCount, err)
		}
		chunk, err := media.NewEncodedAudioChunk(rec.Payload, media.EncodedAudioChunkInit{Type: rec.Type, Timestamp: rec.Timestamp})
		if err != nil {
			return fmt.Errorf("constructing chunk %d: %w", chunkCount, err)
		}
		if err := dec.Decode(chunk); err != nil {
			return fmt.Errorf("decoding chunk %d: %w", chunkCount, err)
		}
		chunkCount++
	}

	if err := dec.Flush(context.Background()); err != nil {
		return fmt.Errorf("flushing decoder: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("writing blocks: %w", writeErr)
	}
	logger().Info("decode complete", slog.Int("chunks", chunkCount), slog.Int("blocks", blockCount))
	return nil
}
