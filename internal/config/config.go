// Package config loads the process-wide configuration
// from a YAML file with environment-variable overrides, validated once at
// startup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/thegrumpylion/google-mcp/internal/phase"
)

// Config is the full process configuration.
type Config struct {
	RateLimitReadTokensPerSecond  float64 `yaml:"rate_limit_read_tokens_per_second"`
	RateLimitWriteTokensPerSecond float64 `yaml:"rate_limit_write_tokens_per_second"`
	RateLimitBurst                int     `yaml:"rate_limit_burst"`
	MaxInFlightGmail              int     `yaml:"max_in_flight_gmail"`
	BatchSize                     int     `yaml:"batch_size"`
	DefaultTimeoutMS              int     `yaml:"default_timeout_ms"`
	ApplyRulesTimeoutMS           int     `yaml:"apply_rules_timeout_ms"`
	SessionTTLHours               int     `yaml:"session_ttl_hours"`
	DefaultScanLimit              *int    `yaml:"default_scan_limit"`
	DefaultDateWindowDays         int     `yaml:"default_date_window_days"`
	CurrentPhase                  int     `yaml:"current_phase"`
	RequireConfirmationForDestructive bool `yaml:"require_confirmation_for_destructive"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	MetricsAddr string `yaml:"metrics_addr"`

	ConfigDir       string `yaml:"config_dir"`
	CredentialsFile string `yaml:"credentials_file"`
	RulesFile       string `yaml:"rules_file"`

	Phases phase.Config `yaml:"phases"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		RateLimitReadTokensPerSecond:       10,
		RateLimitWriteTokensPerSecond:      5,
		RateLimitBurst:                     10,
		MaxInFlightGmail:                   16,
		BatchSize:                          100,
		DefaultTimeoutMS:                   30000,
		ApplyRulesTimeoutMS:                600000,
		SessionTTLHours:                    24,
		DefaultDateWindowDays:              30,
		CurrentPhase:                       1,
		RequireConfirmationForDestructive:  true,
		MetricsAddr:                        ":9090",
	}
}

// Load reads a YAML config file (if path is non-empty and exists) over the
// defaults, then applies environment-variable overrides, then validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	envString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envFloat("ENGINE_RATE_LIMIT_READ_TOKENS_PER_SECOND", &cfg.RateLimitReadTokensPerSecond)
	envFloat("ENGINE_RATE_LIMIT_WRITE_TOKENS_PER_SECOND", &cfg.RateLimitWriteTokensPerSecond)
	envInt("ENGINE_RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	envInt("ENGINE_MAX_IN_FLIGHT_GMAIL", &cfg.MaxInFlightGmail)
	envInt("ENGINE_BATCH_SIZE", &cfg.BatchSize)
	envInt("ENGINE_DEFAULT_TIMEOUT_MS", &cfg.DefaultTimeoutMS)
	envInt("ENGINE_APPLY_RULES_TIMEOUT_MS", &cfg.ApplyRulesTimeoutMS)
	envInt("ENGINE_SESSION_TTL_HOURS", &cfg.SessionTTLHours)
	envInt("ENGINE_DEFAULT_DATE_WINDOW_DAYS", &cfg.DefaultDateWindowDays)
	envInt("ENGINE_CURRENT_PHASE", &cfg.CurrentPhase)
	envBool("ENGINE_REQUIRE_CONFIRMATION_FOR_DESTRUCTIVE", &cfg.RequireConfirmationForDestructive)
	envString("ENGINE_REDIS_ADDR", &cfg.RedisAddr)
	envString("ENGINE_REDIS_PASSWORD", &cfg.RedisPassword)
	envString("ENGINE_CONFIG_DIR", &cfg.ConfigDir)
	envString("ENGINE_CREDENTIALS_FILE", &cfg.CredentialsFile)
	envString("ENGINE_RULES_FILE", &cfg.RulesFile)
	envString("ENGINE_METRICS_ADDR", &cfg.MetricsAddr)
}

// Validate checks invariants not expressible in the struct shape alone.
func (c Config) Validate() error {
	if c.RateLimitReadTokensPerSecond <= 0 {
		return fmt.Errorf("rate_limit_read_tokens_per_second must be > 0")
	}
	if c.RateLimitWriteTokensPerSecond <= 0 {
		return fmt.Errorf("rate_limit_write_tokens_per_second must be > 0")
	}
	if c.BatchSize <= 0 || c.BatchSize > 1000 {
		return fmt.Errorf("batch_size must be in (0, 1000]")
	}
	if c.MaxInFlightGmail <= 0 {
		return fmt.Errorf("max_in_flight_gmail must be > 0")
	}
	if c.CurrentPhase < 1 {
		return fmt.Errorf("current_phase must be >= 1")
	}
	if c.DefaultScanLimit != nil && *c.DefaultScanLimit < 0 {
		return fmt.Errorf("default_scan_limit must be >= 0 when set")
	}
	return nil
}
