// Package config provides configuration loading and validation for the
// piecetree CLI and LSP surfaces.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidSampleRatio = errors.New("trace sample ratio must be in [0, 1]")
	ErrInvalidBenchOps    = errors.New("bench op count must be positive")
	ErrInvalidBenchDoc    = errors.New("bench document size must be positive")
	ErrInvalidLogMaxSize  = errors.New("lsp log max size must be positive")
)

// Config holds all configuration for the piecetree binary.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Otel    OtelConfig    `mapstructure:"otel"`
	LSP     LSPConfig     `mapstructure:"lsp"`
	Bench   BenchConfig   `mapstructure:"bench"`
}

// LoggingConfig holds structured-logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// OtelConfig holds OpenTelemetry export configuration.
type OtelConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Headers     string  `mapstructure:"headers"`
	Environment string  `mapstructure:"environment"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Insecure    bool    `mapstructure:"insecure"`
	Verbose     bool    `mapstructure:"verbose"`
}

// LSPConfig holds LSP server configuration.
type LSPConfig struct {
	DebugAddr     string `mapstructure:"debug_addr"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// BenchConfig holds default knobs for the bench command.
type BenchConfig struct {
	Ops     int   `mapstructure:"ops"`
	DocSize int   `mapstructure:"doc_size"`
	Seed    int64 `mapstructure:"seed"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("piecetree")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/piecetree")
		viperCfg.AddConfigPath("/etc/piecetree")
	}

	viperCfg.SetEnvPrefix("PIECETREE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", false)

	// OTel defaults: no endpoint means no-op providers.
	viperCfg.SetDefault("otel.endpoint", "")
	viperCfg.SetDefault("otel.insecure", false)
	viperCfg.SetDefault("otel.sample_ratio", 0.0)
	viperCfg.SetDefault("otel.verbose", false)

	// LSP defaults.
	viperCfg.SetDefault("lsp.debug_addr", "")
	viperCfg.SetDefault("lsp.log_file", "")
	viperCfg.SetDefault("lsp.log_max_size_mb", DefaultLSPLogMaxSizeMB)
	viperCfg.SetDefault("lsp.log_max_backups", DefaultLSPLogMaxBackups)

	// Bench defaults.
	viperCfg.SetDefault("bench.ops", DefaultBenchOps)
	viperCfg.SetDefault("bench.doc_size", DefaultBenchDocSize)
	viperCfg.SetDefault("bench.seed", DefaultBenchSeed)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if config.Otel.SampleRatio < 0 || config.Otel.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, config.Otel.SampleRatio)
	}

	if config.Bench.Ops <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBenchOps, config.Bench.Ops)
	}

	if config.Bench.DocSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBenchDoc, config.Bench.DocSize)
	}

	if config.LSP.LogMaxSizeMB <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLogMaxSize, config.LSP.LogMaxSizeMB)
	}

	return nil
}
