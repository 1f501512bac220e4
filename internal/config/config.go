// Package config loads fnguard CLI settings from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when Load is called without files. It is optional.
const DefaultEnvFile = ".env"

// Config holds the CLI settings. Values already set in the process environment win
// over values from env files.
type Config struct {
	DBPath     string `env:"FNGUARD_DB_PATH" envDefault:"fnguard.db" validate:"required"`
	LogLevel   string `env:"FNGUARD_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat  string `env:"FNGUARD_LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	CollectAll bool   `env:"FNGUARD_COLLECT_ALL" envDefault:"false"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads files (DefaultEnvFile when none are given) into the environment, skipping
// any that do not exist, then parses and validates Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", describe(err))
	}
	return &cfg, nil
}

// Logger builds the slog logger the settings ask for, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// describe turns validator field errors into one message naming the env keys.
func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := envKeys[fe.Field()]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, key+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", key, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", key, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

var envKeys = map[string]string{
	"DBPath":    "FNGUARD_DB_PATH",
	"LogLevel":  "FNGUARD_LOG_LEVEL",
	"LogFormat": "FNGUARD_LOG_FORMAT",
}
