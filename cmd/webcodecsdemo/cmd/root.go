// Package cmd implements the CLI commands for webcodecsdemo.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/webcodecs-go/webcodecs-core/internal/config"
	_ "github.com/webcodecs-go/webcodecs-core/internal/engine/refengine"
	"github.com/webcodecs-go/webcodecs-core/internal/observability"
)

// demoViper is a separate viper instance so this CLI's own flags never
// collide with a host application embedding the same packages.
var demoViper = viper.New()

// cfg is the loaded runtime configuration, populated in rootCmd's
// PersistentPreRunE before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "webcodecsdemo",
	Short: "Smoke-test CLI for the webcodecs-core pipelines",
	Long: `webcodecsdemo drives the webcodecs-core library packages end-to-end
from the command line: probe whether a codec string is supported,
encode raw frames/samples into chunks, or decode chunks back into raw
frames/samples.

Configuration is primarily via flags, with environment variable
overrides prefixed WEBCODECSDEMO_ (e.g. WEBCODECSDEMO_LOGGING_LEVEL=debug).`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	mustBindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load("")
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if level := demoViper.GetString("logging.level"); level != "" {
			loaded.Logging.Level = strings.ToLower(level)
		}
		if format := demoViper.GetString("logging.format"); format != "" {
			loaded.Logging.Format = strings.ToLower(format)
		}
		cfg = loaded
		observability.SetDefault(observability.NewLoggerWithWriter(cfg.Logging, os.Stderr))
		return nil
	}
}

func initConfig() {
	demoViper.SetEnvPrefix("WEBCODECSDEMO")
	demoViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	demoViper.AutomaticEnv()
}

// mustBindPFlag binds a demoViper key to a cobra flag so the flag's
// value participates in the same precedence chain as a config file or
// WEBCODECSDEMO_ environment variable would.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := demoViper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}

func logger() *slog.Logger {
	return observability.Default()
}
