// Package storage defines the persistence contract for tables and a registry
// of format-keyed backends. The calling code depends only on the Backend
// interface; concrete formats (CSV, JSON, SQLite, Postgres) live in
// subpackages and register themselves at init time, so adding a format
// requires no change at call sites. Import wikietl/internal/storage/all for
// the side effect of registering every built-in backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wikietl/internal/table"
)

// ErrNotFound reports that a Load source does not exist.
var ErrNotFound = errors.New("storage: not found")

// Options adjusts a single Save or Load call.
type Options struct {
	// Placeholder permits saving an empty table as a headers-only artifact.
	// Without it, saving an empty table is a caller error: Success=false and
	// no artifact is written.
	Placeholder bool
}

// Outcome reports a Save operation. Failures are returned in the outcome
// rather than as errors so callers can inspect the full detail; the graph
// executor converts a failed outcome into a stage failure.
type Outcome struct {
	Success     bool
	Message     string
	RecordCount int
	Errors      []string

	// Meta carries operation facts such as is_placeholder.
	Meta map[string]any
}

// Failure builds a failed outcome from an error.
func Failure(msg string, count int, err error) Outcome {
	out := Outcome{Success: false, Message: msg, RecordCount: count}
	if err != nil {
		out.Errors = []string{err.Error()}
	}
	return out
}

// Backend persists tables to named destinations. Destination naming is
// backend-specific: a relative file path for file formats, a table name for
// database formats.
type Backend interface {
	Save(ctx context.Context, tbl table.Table, destination string, opts Options) Outcome
	Load(ctx context.Context, source string, opts Options) (table.Table, error)
}

// Config selects and parameterizes a backend.
type Config struct {
	// Kind is the registered format name: "csv", "json", "sqlite", "postgres".
	Kind string

	// BaseDir anchors relative destinations for file-based backends and the
	// database file for sqlite. Created on demand.
	BaseDir string

	// DSN is the connection string for server-backed backends (postgres).
	DSN string
}

// Factory constructs a Backend from its Config.
type Factory func(ctx context.Context, cfg Config) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs a backend factory under a format name. Backends call it
// from init; a duplicate name panics, which surfaces wiring mistakes at
// startup rather than at save time.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("storage: backend %q registered twice", kind))
	}
	registry[kind] = f
}

// Open resolves cfg.Kind through the registry and constructs the backend.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToLower(cfg.Kind)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend kind %q (registered: %s)",
			cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

// Kinds lists the registered format names, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
