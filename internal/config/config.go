// Package config loads the demo server settings from the environment, an
// optional .env file and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process settings. It is immutable once Load returns.
type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	BaseURL   string `env:"SWAPI_BASE_URL" envDefault:"https://swapi.dev/api/"`
	TimeoutMs int    `env:"SWAPI_TIMEOUT_MS" envDefault:"5000"`
	Debug     bool   `env:"SWAPI_DEBUG" envDefault:"true"`
	// InsecureSkipVerifyForTesting disables TLS verification of the API.
	// Only meant for test harnesses with self-signed certificates.
	InsecureSkipVerifyForTesting bool `env:"SWAPI_INSECURE_SKIP_VERIFY_FOR_TESTING" envDefault:"false"`
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads dotenvFile (when it exists), the environment, then args.
// Recognised flags: --no-debug, --timeout <ms>, --port <n>.
func Load(dotenvFile string, args []string, output io.Writer) (Config, error) {
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.applyFlags(args, output); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFlags(args []string, output io.Writer) error {
	fs := flag.NewFlagSet("swapi-demo", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	noDebug := fs.Bool("no-debug", false, "Disable debug logging")
	fs.IntVar(&c.TimeoutMs, "timeout", c.TimeoutMs, "Request timeout in milliseconds")
	fs.IntVar(&c.Port, "port", c.Port, "Port to listen on")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *noDebug {
		c.Debug = false
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("invalid timeout %dms: must be positive", c.TimeoutMs)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BaseURL == "" {
		return errors.New("base url must not be empty")
	}
	return nil
}
