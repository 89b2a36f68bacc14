// Package source defines the inbound data-source contract the pipeline
// depends on, plus the error taxonomy for fetch failures. Concrete clients
// live in subpackages (wikiapi); the core only sees the PageSource interface.
package source

import (
	"context"
	"fmt"

	"wikietl/internal/table"
)

// PageSource fetches the page listing as a table. Implementations must
// return a zero-row table that still carries the expected column set when
// the remote result list is empty.
type PageSource interface {
	FetchPages(ctx context.Context) (table.Table, error)
}

// NetworkError reports that the source was unreachable or timed out. It is
// surfaced, never retried; the stage aborts.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("source: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FormatError reports that the response body did not have the expected
// shape. It is surfaced; the stage aborts.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("source: invalid response format: %s", e.Reason)
}
