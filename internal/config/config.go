// Package config defines the process configuration: where to fetch pages
// from, where exports land, and which storage format to use. It is read once
// at process start and threaded through job construction; nothing else in
// the program touches the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults, documented on the CLI surface.
const (
	DefaultSourceURL = "https://en.wikipedia.org/w/api.php"
	DefaultOutputDir = "data"
	DefaultStorage   = "csv"
	DefaultTimeout   = 30 * time.Second
	DefaultPageLimit = 50
)

// Config carries every knob the pipeline reads. Values are fixed once built.
type Config struct {
	// SourceURL is the page-listing API endpoint (env WIKI_API_URL).
	SourceURL string

	// OutputDir anchors relative export destinations (env OUTPUT_PATH).
	OutputDir string

	// StorageKind selects the registered storage backend (env STORAGE_KIND).
	StorageKind string

	// PostgresDSN is required only when StorageKind is "postgres"
	// (env POSTGRES_DSN).
	PostgresDSN string

	// FetchTimeout bounds each source request (env FETCH_TIMEOUT_SECONDS).
	FetchTimeout time.Duration

	// PageLimit is the number of pages requested per fetch (env PAGE_LIMIT).
	PageLimit int
}

// FromEnv builds a Config from the environment, applying defaults for unset
// or malformed values.
func FromEnv() Config {
	cfg := Config{
		SourceURL:    envOr("WIKI_API_URL", DefaultSourceURL),
		OutputDir:    envOr("OUTPUT_PATH", DefaultOutputDir),
		StorageKind:  envOr("STORAGE_KIND", DefaultStorage),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		FetchTimeout: DefaultTimeout,
		PageLimit:    DefaultPageLimit,
	}
	if s := os.Getenv("FETCH_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		}
	}
	if s := os.Getenv("PAGE_LIMIT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.PageLimit = n
		}
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
