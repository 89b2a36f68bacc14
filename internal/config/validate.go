// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that callers can
// surface in the CLI before running anything.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can stand alone.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(cfg Config, knownStorage []string) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.SourceURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.url",
			Message:  "source URL must not be empty",
		})
	} else if u, err := url.Parse(cfg.SourceURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.url",
			Message:  fmt.Sprintf("source URL %q is not an absolute URL", cfg.SourceURL),
		})
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.dir",
			Message:  "output directory must not be empty",
		})
	}

	kind := strings.ToLower(cfg.StorageKind)
	known := false
	for _, k := range knownStorage {
		if k == kind {
			known = true
			break
		}
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message: fmt.Sprintf("unknown storage kind %q (registered: %s)",
				cfg.StorageKind, strings.Join(knownStorage, ", ")),
		})
	}
	if kind == "postgres" && strings.TrimSpace(cfg.PostgresDSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "postgres storage requires POSTGRES_DSN",
		})
	}

	if cfg.FetchTimeout <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.timeout",
			Message:  "fetch timeout must be positive",
		})
	}
	if cfg.PageLimit <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.page_limit",
			Message:  "page limit must be positive",
		})
	} else if cfg.PageLimit > 500 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.page_limit",
			Message:  fmt.Sprintf("page limit %d exceeds the API maximum for anonymous clients (500)", cfg.PageLimit),
		})
	}

	return issues
}
