// Package config loads the application configuration from YAML with
// environment-variable fallbacks.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Model provider configuration
	Provider        string  `yaml:"provider"` // gemini, openai
	GeminiAPIKey    string  `yaml:"gemini_api_key"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	ModelName       string  `yaml:"model_name"`
	Temperature     float64 `yaml:"temperature"`
	TranslationTemp float64 `yaml:"translation_temp"`

	// Outbound call throttle (0 disables)
	ModelCallsPerSecond float64 `yaml:"model_calls_per_second"`
	ModelCallBurst      int     `yaml:"model_call_burst"`

	// Rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Redis (shared cache and rate-limit store)
	Redis RedisConfig `yaml:"redis"`

	// Translation cache
	Cache CacheConfig `yaml:"cache"`

	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Report export
	Report ReportConfig `yaml:"report"`

	// Security
	MaxMessageLength int `yaml:"max_message_length"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// RateLimitConfig holds per-user admission ceilings.
type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	PerMinute int  `yaml:"per_minute"`
	PerHour   int  `yaml:"per_hour"`
}

// RedisConfig holds the optional shared store connection.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds translation cache settings.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

// TTL returns the entry time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ReportConfig holds the report export settings.
type ReportConfig struct {
	Enabled        bool   `yaml:"enabled"`
	OutputDir      string `yaml:"output_dir"`
	ShowDisclaimer bool   `yaml:"show_disclaimer"`
}

// Default returns the configuration defaults before any file or
// environment override is applied.
func Default() *Config {
	return &Config{
		Provider:            "gemini",
		ModelName:           "gemini-1.5-flash",
		Temperature:         0.7,
		TranslationTemp:     0.1,
		ModelCallsPerSecond: 0,
		ModelCallBurst:      1,
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerMinute: 10,
			PerHour:   100,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 7860,
		},
		Report: ReportConfig{
			Enabled:        true,
			OutputDir:      "./reports",
			ShowDisclaimer: true,
		},
		MaxMessageLength: 2000,
		LogLevel:         "info",
	}
}

// Load reads configuration from a YAML file. A missing file is not an
// error: the service can run entirely from environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("PHARMAGEN_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("PHARMAGEN_MODEL_NAME"); v != "" {
		cfg.ModelName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("PHARMAGEN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PHARMAGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks if the configuration is valid. It reports every
// violation, not just the first one found.
func (c *Config) Validate() error {
	var errs []string

	switch c.Provider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, "gemini_api_key is required (set GEMINI_API_KEY)")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, "openai_api_key is required (set OPENAI_API_KEY)")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown provider %q", c.Provider))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.PerMinute <= 0 {
			errs = append(errs, "rate_limit.per_minute must be positive")
		}
		if c.RateLimit.PerHour <= 0 {
			errs = append(errs, "rate_limit.per_hour must be positive")
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.MaxMessageLength <= 0 {
		errs = append(errs, "max_message_length must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", errs)
	}
	return nil
}
