package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Remote holds the translation server settings.
type Remote struct {
	URL           string        `env:"TRANSLATTE_API_URL"`
	Token         string        `env:"TRANSLATTE_API_TOKEN"`
	Timeout       time.Duration `env:"TRANSLATTE_TIMEOUT" envDefault:"30s"`
	MaxConcurrent int           `env:"TRANSLATTE_MAX_CONCURRENT" envDefault:"4"`
}

// ErrRemoteNotConfigured is returned by Remote.Validate when the server URL
// or token is missing.
var ErrRemoteNotConfigured = errors.New("remote server is not configured")

// LoadRemote reads Remote from the process environment. Values from the
// given dotenv files fill in variables the environment does not set; files
// that do not exist are skipped.
func LoadRemote(dotenvFiles ...string) (Remote, error) {
	environ := env.ToMap(os.Environ())

	var existing []string
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		fileVars, err := godotenv.Read(existing...)
		if err != nil {
			return Remote{}, fmt.Errorf("reading dotenv: %w", err)
		}
		for k, v := range fileVars {
			if _, ok := environ[k]; !ok {
				environ[k] = v
			}
		}
	}

	var r Remote
	if err := env.ParseWithOptions(&r, env.Options{Environment: environ}); err != nil {
		return Remote{}, fmt.Errorf("parsing environment: %w", err)
	}
	return r, nil
}

// Validate checks that the settings needed to talk to the server are set.
func (r Remote) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("%w: TRANSLATTE_API_URL is empty", ErrRemoteNotConfigured)
	}
	if r.Token == "" {
		return fmt.Errorf("%w: TRANSLATTE_API_TOKEN is empty", ErrRemoteNotConfigured)
	}
	if r.MaxConcurrent < 1 {
		return fmt.Errorf("TRANSLATTE_MAX_CONCURRENT must be at least 1, got %d", r.MaxConcurrent)
	}
	return nil
}
