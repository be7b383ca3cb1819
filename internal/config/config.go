// Package config provides Viper-based hierarchical configuration management.
//
// Precedence, lowest first: defaults, config.yaml, .env, FATTURA_* environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/rezonia/fattura-processor/internal/logger"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "FATTURA"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
		Output string `mapstructure:"output" yaml:"output"`
	} `mapstructure:"log" yaml:"log"`

	Server struct {
		Host           string        `mapstructure:"host" yaml:"host"`
		Port           int           `mapstructure:"port" yaml:"port"`
		ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
		MaxUploadBytes int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	} `mapstructure:"server" yaml:"server"`

	Database struct {
		Driver string `mapstructure:"driver" yaml:"driver"` // memory or sqlite
		DSN    string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`

	RateLimit struct {
		Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
		Requests int           `mapstructure:"requests" yaml:"requests"`
		Window   time.Duration `mapstructure:"window" yaml:"window"`
	} `mapstructure:"rate_limit" yaml:"rate_limit"`

	Closure struct {
		DifferenceThreshold string `mapstructure:"difference_threshold" yaml:"difference_threshold"`
		VATRate             string `mapstructure:"vat_rate" yaml:"vat_rate"`
	} `mapstructure:"closure" yaml:"closure"`

	Supplier struct {
		AutoCreate        bool   `mapstructure:"auto_create" yaml:"auto_create"`
		DefaultAccountRef string `mapstructure:"default_account_ref" yaml:"default_account_ref"`
	} `mapstructure:"supplier" yaml:"supplier"`
}

// Load reads configuration. An empty configFile searches the usual
// locations; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	// A missing .env is the normal case outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.fattura-processor")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "fattura.db")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("closure.difference_threshold", "5.00")
	v.SetDefault("closure.vat_rate", "10")

	v.SetDefault("supplier.auto_create", false)
	v.SetDefault("supplier.default_account_ref", "")
}

// Persistent reports whether the configured store outlives the process
func (c *Config) Persistent() bool {
	return c.Database.Driver == "sqlite"
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Log.Format)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "memory":
	case "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate_limit needs positive requests and window, got %d per %s", c.RateLimit.Requests, c.RateLimit.Window)
	}

	if _, err := decimal.NewFromString(c.Closure.DifferenceThreshold); err != nil {
		return fmt.Errorf("closure.difference_threshold is not a number: %s", c.Closure.DifferenceThreshold)
	}
	if _, err := decimal.NewFromString(c.Closure.VATRate); err != nil {
		return fmt.Errorf("closure.vat_rate is not a number: %s", c.Closure.VATRate)
	}

	return nil
}

// DifferenceThreshold returns the closure cash-difference threshold
func (c *Config) DifferenceThreshold() decimal.Decimal {
	return decimal.RequireFromString(c.Closure.DifferenceThreshold)
}

// VATRate returns the default VAT rate, in percent, applied to closure sales
func (c *Config) VATRate() decimal.Decimal {
	return decimal.RequireFromString(c.Closure.VATRate)
}

// LogConfig converts the log section for logger.Setup
func (c *Config) LogConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.Output = c.Log.Output
	return lc
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
