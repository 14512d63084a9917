package config

import (
	"io"
	"log/slog"

	"github.com/ilyakaznacheev/cleanenv"
)

// NewLogger returns a text logger in development and a JSON logger
// elsewhere. An unparsable level falls back to info.
func NewLogger(w io.Writer, environment, level string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if environment == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WebConfig configures the server-rendered site.
type WebConfig struct {
	Port        string `env:"WEB_PORT" env-default:"3000"`
	BackendURL  string `env:"SITE_BACKEND_URL" env-default:"http://localhost:8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
}

// LoadWeb reads WebConfig from the environment.
func LoadWeb() (*WebConfig, error) {
	var cfg WebConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
