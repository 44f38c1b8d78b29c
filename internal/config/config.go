// Package config provides configuration management for webcodecs-core
// using Viper. It supports configuration from files, environment
// variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultQueueTargetSize    = 8
	defaultQueueMaxSize       = 64
	defaultQueueNotify        = 4
	defaultEngineKind         = "reference"
	defaultHTTPTimeout        = 30 * time.Second
	defaultFlushPollInterval  = time.Millisecond
	defaultHardwareAccel      = "no-preference"
	defaultImageDecodeTimeout = 10 * time.Second
)

// Config holds all configuration for the webcodecs-core runtime.
type Config struct {
	Queue   QueueConfig   `mapstructure:"queue"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Image   ImageConfig   `mapstructure:"image"`
}

// QueueConfig holds per-pipeline submission queue tuning.
type QueueConfig struct {
	// TargetSize is loaded and validated (0..MaxSize), but no queue reads
	// it; dequeue notification cadence is set by NotifyThreshold.
	TargetSize int `mapstructure:"target_size"`
	// MaxSize is the hard limit; enqueue beyond it raises QuotaExceededError.
	MaxSize int `mapstructure:"max_size"`
	// NotifyThreshold is how far the queue must shrink before a dequeue
	// event is posted to the host.
	NotifyThreshold int `mapstructure:"notify_threshold"`
}

// EngineConfig selects and tunes the CodecEngineAdapter backing new
// pipelines.
type EngineConfig struct {
	// Kind selects a registered engine factory ("reference" is the
	// built-in deterministic software engine).
	Kind string `mapstructure:"kind"`
	// HardwareAcceleration is loaded and validated (no-preference,
	// prefer-hardware, prefer-software), but no pipeline reads it: each
	// encoder/decoder takes the hint from its own configure() call and
	// uses no-preference when that call leaves it empty.
	HardwareAcceleration string `mapstructure:"hardware_acceleration"`
	// FlushPollInterval is loaded from configuration, but no flush path
	// reads it: a pending flush() waits on a channel rather than polling.
	FlushPollInterval time.Duration `mapstructure:"flush_poll_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// HTTPConfig holds the optional debug/inspection HTTP server configuration.
type HTTPConfig struct {
	// Addr is the bind address for the introspection server. Empty disables it.
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImageConfig holds ImageDecoder tuning.
type ImageConfig struct {
	DecodeTimeout time.Duration `mapstructure:"decode_timeout"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration and are
// prefixed with WEBCODECS_ using underscores for nesting, e.g.
// WEBCODECS_QUEUE_MAX_SIZE=128.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("webcodecs")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/webcodecs")
	}

	v.SetEnvPrefix("WEBCODECS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// Call this before reading a config file so file/env values can override.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("queue.target_size", defaultQueueTargetSize)
	v.SetDefault("queue.max_size", defaultQueueMaxSize)
	v.SetDefault("queue.notify_threshold", defaultQueueNotify)

	v.SetDefault("engine.kind", defaultEngineKind)
	v.SetDefault("engine.hardware_acceleration", defaultHardwareAccel)
	v.SetDefault("engine.flush_poll_interval", defaultFlushPollInterval)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("http.addr", "")
	v.SetDefault("http.timeout", defaultHTTPTimeout)

	v.SetDefault("image.decode_timeout", defaultImageDecodeTimeout)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Queue.MaxSize < 1 {
		return fmt.Errorf("queue.max_size must be at least 1")
	}
	if c.Queue.TargetSize < 0 || c.Queue.TargetSize > c.Queue.MaxSize {
		return fmt.Errorf("queue.target_size must be between 0 and queue.max_size")
	}
	if c.Queue.NotifyThreshold < 1 {
		return fmt.Errorf("queue.notify_threshold must be at least 1")
	}

	validAccel := map[string]bool{"no-preference": true, "prefer-hardware": true, "prefer-software": true}
	if !validAccel[c.Engine.HardwareAcceleration] {
		return fmt.Errorf("engine.hardware_acceleration must be one of: no-preference, prefer-hardware, prefer-software")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
