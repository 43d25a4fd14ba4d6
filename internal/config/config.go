package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, populated from environment
// variables at session start.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	OllamaURL   string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"llama3.1"`

	VeniceAPIKey     string `env:"VENICE_API_KEY"`
	VeniceImageModel string `env:"VENICE_IMAGE_MODEL" envDefault:"venice-sd35"`

	// RedisURL enables the image-reference cache; empty disables it.
	RedisURL string `env:"REDIS_URL"`

	TokenBudget int `env:"TOKEN_BUDGET" envDefault:"126000"`
	MaxSlots    int `env:"MAX_SLOTS" envDefault:"6"`

	// SelfPlayIdle is how long the session may sit idle before a
	// self-play turn runs. Zero disables self-play.
	SelfPlayIdle time.Duration `env:"SELF_PLAY_IDLE" envDefault:"90s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
