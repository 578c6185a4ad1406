// Package config loads lifegap settings from defaults, an optional YAML
// config file, LIFEGAP_* environment variables and bound command flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/lifegap/internal/decomp"
	"github.com/roach88/lifegap/internal/lifetable"
)

// EnvPrefix prefixes environment overrides, e.g. LIFEGAP_STEPS.
const EnvPrefix = "LIFEGAP"

// Config holds the settings shared by every command.
type Config struct {
	// Steps is the default number of decomposition integration segments.
	Steps int `mapstructure:"steps"`

	// Radix is the starting cohort size for life tables.
	Radix float64 `mapstructure:"radix"`

	// Workers bounds concurrent gradient evaluations and batch pairs.
	Workers int `mapstructure:"workers"`

	// DB is the SQLite run store path.
	DB string `mapstructure:"db"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`

	// Format is the default output format: text, json or csv.
	Format string `mapstructure:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Steps:    decomp.DefaultSteps,
		Radix:    lifetable.DefaultRadix,
		Workers:  1,
		DB:       "lifegap.db",
		LogLevel: "warn",
		Format:   "text",
	}
}

// SetDefaults registers every key with its default on v. Keys must be
// registered for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("steps", d.Steps)
	v.SetDefault("radix", d.Radix)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("db", d.DB)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("format", d.Format)
}

// New returns a viper instance with defaults and environment overrides.
// An explicit configFile must exist; otherwise lifegap.yaml is looked up in
// ConfigDir and the working directory and skipped when absent.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return v, nil
	}

	v.SetConfigName("lifegap")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lifegap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lifegap"
	}
	return filepath.Join(home, ".config", "lifegap")
}

// ValidLogLevels lists the accepted log_level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidFormats lists the accepted format values.
func ValidFormats() []string {
	return []string{"text", "json", "csv"}
}

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d invalid settings:", len(e))
	for _, err := range e {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	if c.Steps < 1 {
		errs = append(errs, ValidationError{"steps", c.Steps, "must be at least 1"})
	}
	if c.Radix < 0 {
		errs = append(errs, ValidationError{"radix", c.Radix, "must not be negative"})
	}
	if c.Workers < 1 {
		errs = append(errs, ValidationError{"workers", c.Workers, "must be at least 1"})
	}
	if !slices.Contains(ValidLogLevels(), c.LogLevel) {
		errs = append(errs, ValidationError{"log_level", c.LogLevel, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if !slices.Contains(ValidFormats(), c.Format) {
		errs = append(errs, ValidationError{"format", c.Format, "must be one of " + strings.Join(ValidFormats(), ", ")})
	}
	return errs
}
