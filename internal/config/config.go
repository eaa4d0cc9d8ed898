// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/airwave.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultBlockDuration             = 8 * time.Hour
	defaultHorizonBlocks             = 3
	defaultRetentionWindow           = 24 * time.Hour
	defaultInterstitialFill          = 2 * time.Minute
	defaultProgramBreak              = 0 * time.Second
	defaultAutoRegenerate            = true
	defaultAutoRegenerateInterval    = 1 * time.Hour
	defaultMaxConcurrent             = 4
	envPrefix                        = "AIRWAVE"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Schedule ScheduleConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	MigrationsPath    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// ScheduleConfig holds the scheduling engine configuration.
// These are the process defaults; the settings table can override the
// per-schedule options at runtime.
type ScheduleConfig struct {
	BlockDuration          time.Duration
	HorizonBlocks          int
	RetentionWindow        time.Duration
	InterstitialFill       time.Duration
	ProgramBreak           time.Duration
	AutoRegenerate         bool
	AutoRegenerateInterval time.Duration
	MaxConcurrent          int
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/airwave")

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.migrationspath", "file://./migrations")

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Schedule defaults
	v.SetDefault("schedule.blockduration", defaultBlockDuration)
	v.SetDefault("schedule.horizonblocks", defaultHorizonBlocks)
	v.SetDefault("schedule.retentionwindow", defaultRetentionWindow)
	v.SetDefault("schedule.interstitialfill", defaultInterstitialFill)
	v.SetDefault("schedule.programbreak", defaultProgramBreak)
	v.SetDefault("schedule.autoregenerate", defaultAutoRegenerate)
	v.SetDefault("schedule.autoregenerateinterval", defaultAutoRegenerateInterval)
	v.SetDefault("schedule.maxconcurrent", defaultMaxConcurrent)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Schedule.BlockDuration < time.Minute {
		return fmt.Errorf("invalid block duration: %v (must be >= 1m)", c.Schedule.BlockDuration)
	}
	if c.Schedule.HorizonBlocks < 1 {
		return fmt.Errorf("invalid horizon blocks: %d (must be >= 1)", c.Schedule.HorizonBlocks)
	}
	if c.Schedule.RetentionWindow < 0 {
		return fmt.Errorf("invalid retention window: %v (must be >= 0)", c.Schedule.RetentionWindow)
	}
	if c.Schedule.InterstitialFill <= 0 {
		return fmt.Errorf("invalid interstitial fill: %v (must be > 0)", c.Schedule.InterstitialFill)
	}
	if c.Schedule.ProgramBreak < 0 {
		return fmt.Errorf("invalid program break: %v (must be >= 0)", c.Schedule.ProgramBreak)
	}
	if c.Schedule.AutoRegenerateInterval <= 0 {
		return fmt.Errorf("invalid auto-regenerate interval: %v (must be > 0)", c.Schedule.AutoRegenerateInterval)
	}
	if c.Schedule.MaxConcurrent < 1 {
		return fmt.Errorf("invalid max concurrent: %d (must be >= 1)", c.Schedule.MaxConcurrent)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
