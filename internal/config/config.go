// Package config loads runtime settings from the environment.
//
// An optional .env file in the working directory is read first; variables
// already set in the process environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	DBPath          string        `env:"AGVN_DB_PATH"           envDefault:"data/scripts.db"`
	APIKey          string        `env:"GOOGLE_API_KEY"`
	Model           string        `env:"AGVN_MODEL"             envDefault:"gemini-2.5-pro"`
	GeminiBaseURL   string        `env:"AGVN_GEMINI_BASE_URL"   envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	MaxOutputTokens int           `env:"AGVN_MAX_OUTPUT_TOKENS" envDefault:"35500"`
	Temperature     float64       `env:"AGVN_TEMPERATURE"       envDefault:"1"`
	RequestTimeout  time.Duration `env:"AGVN_REQUEST_TIMEOUT"   envDefault:"5m"`
	PromptsDir      string        `env:"AGVN_PROMPTS_DIR"       envDefault:"prompts"`
	DebugLogDir     string        `env:"AGVN_DEBUG_LOG_DIR"     envDefault:"logs"`
	RosterPath      string        `env:"AGVN_ROSTER_PATH"`
	HTTPAddr        string        `env:"AGVN_HTTP_ADDR"         envDefault:":8000"`
	LogLevel        string        `env:"AGVN_LOG_LEVEL"         envDefault:"info"`
	AllowedOrigins  []string      `env:"AGVN_ALLOWED_ORIGINS"   envDefault:"http://localhost:3000,http://localhost:8000" envSeparator:","`
}

// ErrMissingAPIKey is returned by RequireGenerator when no key is set.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY not found in environment variables")

// Load reads .env files (missing files are ignored) and parses the
// environment. With no arguments it reads .env from the working directory.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense.
func (c Config) Validate() error {
	switch {
	case c.DBPath == "":
		return errors.New("AGVN_DB_PATH must not be empty")
	case c.MaxOutputTokens <= 0:
		return fmt.Errorf("AGVN_MAX_OUTPUT_TOKENS must be positive, got %d", c.MaxOutputTokens)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("AGVN_TEMPERATURE must be within [0, 2], got %g", c.Temperature)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("AGVN_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// RequireGenerator reports whether the settings needed to call the
// generator are present.
func (c Config) RequireGenerator() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
