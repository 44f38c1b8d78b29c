package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/pipeline"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether a codec configuration is supported",
	Long: `probe runs the static isConfigSupported check for one of the four
pipeline kinds and prints the result as JSON, without configuring a
real pipeline.

Examples:
  # Video encoder
  webcodecsdemo probe --kind video-encoder --codec avc1.42001e --width 1280 --height 720

  # Audio decoder
  webcodecsdemo probe --kind audio-decoder --codec opus --sample-rate 48000 --channels 2`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().String("kind", "", "video-encoder, video-decoder, audio-encoder or audio-decoder (required)")
	probeCmd.Flags().String("codec", "", "codec string, e.g. avc1.42001e or opus (required)")
	probeCmd.Flags().Int("width", 0, "coded/display width (video kinds)")
	probeCmd.Flags().Int("height", 0, "coded/display height (video kinds)")
	probeCmd.Flags().Int("sample-rate", 0, "sample rate in Hz (audio kinds)")
	probeCmd.Flags().Int("channels", 0, "number of channels (audio kinds)")
	probeCmd.Flags().Bool("pretty", false, "pretty-print JSON output")
}

type probeResult struct {
	Kind      string `json:"kind"`
	Codec     string `json:"codec"`
	Supported bool   `json:"supported"`
}

func runProbe(cmd *cobra.Command, _ []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	codec, _ := cmd.Flags().GetString("codec")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	pretty, _ := cmd.Flags().GetBool("pretty")

	if kind == "" || codec == "" {
		return fmt.Errorf("--kind and --codec are required")
	}

	factory, ok := engine.Lookup(cfg.Engine.Kind)
	if !ok {
		return fmt.Errorf("no engine registered under engine.kind=%q", cfg.Engine.Kind)
	}

	var report pipeline.SupportReport
	switch kind {
	case "video-encoder":
		report = pipeline.IsVideoEncoderConfigSupported(factory, pipeline.VideoEncoderConfig{
			Codec: codec, Width: width, Height: height,
		})
	case "video-decoder":
		report = pipeline.IsVideoDecoderConfigSupported(factory, pipeline.VideoDecoderConfig{Codec: codec})
	case "audio-encoder":
		report = pipeline.IsAudioEncoderConfigSupported(factory, pipeline.AudioEncoderConfig{
			Codec: codec, SampleRate: sampleRate, NumberOfChannels: channels,
		})
	case "audio-decoder":
		report = pipeline.IsAudioDecoderConfigSupported(factory, pipeline.AudioDecoderConfig{
			Codec: codec, SampleRate: sampleRate, NumberOfChannels: channels,
		})
	default:
		return fmt.Errorf("unrecognized --kind %q", kind)
	}

	result := probeResult{Kind: kind, Codec: codec, Supported: report.Supported}

	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
