// Package config loads server settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sfxrentals/dossier/fetch"
)

// Environment variables understood by the server.
const (
	EnvAddr          = "DOSSIER_ADDR"
	EnvFetchTimeout  = "DOSSIER_FETCH_TIMEOUT"
	EnvVerifyBaseURL = "DOSSIER_VERIFY_BASE_URL"
	EnvMaxFetchBytes = "DOSSIER_MAX_FETCH_BYTES"
)

// DefaultAddr is the listen address used when DOSSIER_ADDR is unset.
const DefaultAddr = ":8000"

// Config holds the server settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// FetchTimeout bounds a single external document fetch.
	FetchTimeout time.Duration

	// VerifyBaseURL is the base URL encoded in cover QR codes. Empty
	// disables the QR code.
	VerifyBaseURL string

	// MaxFetchBytes caps the size of a fetched external document.
	MaxFetchBytes int64
}

// Load reads the configuration from the environment. A .env file is
// loaded first when present; real environment variables take precedence.
func Load() (Config, error) {
	godotenv.Load()

	cfg := Config{
		Addr:          DefaultAddr,
		FetchTimeout:  fetch.DefaultTimeout,
		MaxFetchBytes: fetch.DefaultMaxBytes,
		VerifyBaseURL: os.Getenv(EnvVerifyBaseURL),
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvFetchTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("config: invalid %s %q", EnvFetchTimeout, v)
		}
		cfg.FetchTimeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv(EnvMaxFetchBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid %s %q", EnvMaxFetchBytes, v)
		}
		cfg.MaxFetchBytes = n
	}
	return cfg, nil
}
