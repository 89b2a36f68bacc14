// Package csvstore implements the CSV storage backend: UTF-8, header row,
// no row-index column. Relative destinations are resolved against a base
// directory which is created on demand. On load, columns whose every
// non-empty value parses as an integer are coerced to int64 so integer
// columns survive a round trip.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"wikietl/internal/storage"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(cfg.BaseDir)
	})
}

// Store is a CSV file backend rooted at BaseDir.
type Store struct {
	BaseDir string
}

// New constructs a Store, creating the base directory if missing. An empty
// baseDir defaults to "data".
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("csvstore: create base dir: %w", err)
	}
	return &Store{BaseDir: baseDir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(name))
}

// Save writes the table to destination. An empty table without the
// placeholder option is rejected before anything touches disk; with it, a
// headers-only file is written and the outcome is tagged is_placeholder.
func (s *Store) Save(ctx context.Context, tbl table.Table, destination string, opts storage.Options) storage.Outcome {
	if err := ctx.Err(); err != nil {
		return storage.Failure("save canceled", tbl.Len(), err)
	}
	if tbl.Empty() && !opts.Placeholder {
		return storage.Outcome{
			Success:     false,
			Message:     "cannot save empty table",
			RecordCount: 0,
			Errors:      []string{"table is empty"},
		}
	}

	dest := s.path(destination)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return storage.Failure("failed to create destination directory", tbl.Len(), err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return storage.Failure("failed to create CSV file", tbl.Len(), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tbl.Columns); err != nil {
		return storage.Failure("failed to write CSV header", tbl.Len(), err)
	}
	row := make([]string, len(tbl.Columns))
	for _, r := range tbl.Rows {
		for i, col := range tbl.Columns {
			row[i] = records.AsString(r[col])
		}
		if err := w.Write(row); err != nil {
			return storage.Failure("failed to write CSV row", tbl.Len(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return storage.Failure("failed to flush CSV file", tbl.Len(), err)
	}

	out := storage.Outcome{
		Success:     true,
		Message:     fmt.Sprintf("data saved to %s", dest),
		RecordCount: tbl.Len(),
	}
	if tbl.Empty() {
		out.Message = fmt.Sprintf("placeholder saved to %s", dest)
		out.Meta = map[string]any{"is_placeholder": true}
	}
	return out
}

// Load reads a CSV file back into a table. A missing source reports
// storage.ErrNotFound.
func (s *Store) Load(ctx context.Context, source string, _ storage.Options) (table.Table, error) {
	if err := ctx.Err(); err != nil {
		return table.Table{}, err
	}
	f, err := os.Open(s.path(source))
	if err != nil {
		if os.IsNotExist(err) {
			return table.Table{}, fmt.Errorf("%w: %s", storage.ErrNotFound, source)
		}
		return table.Table{}, fmt.Errorf("csvstore: open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return table.Table{}, fmt.Errorf("csvstore: read header: %w", err)
	}
	tbl := table.New(header...)
	rows, err := r.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("csvstore: read rows: %w", err)
	}
	for _, raw := range rows {
		rec := make(records.Record, len(header))
		for i, col := range header {
			if i < len(raw) {
				rec[col] = raw[i]
			} else {
				rec[col] = nil
			}
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
	coerceIntColumns(&tbl)
	return tbl, nil
}

// coerceIntColumns rewrites a column to int64 when every non-empty value in
// it parses as an integer; empty cells become nil.
func coerceIntColumns(tbl *table.Table) {
	for _, col := range tbl.Columns {
		allInt := true
		sawValue := false
		for _, r := range tbl.Rows {
			s, _ := r[col].(string)
			if s == "" {
				continue
			}
			sawValue = true
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
				break
			}
		}
		if !allInt || !sawValue {
			// Still normalize empty strings to nil for non-int columns.
			for _, r := range tbl.Rows {
				if s, ok := r[col].(string); ok && s == "" {
					r[col] = nil
				}
			}
			continue
		}
		for _, r := range tbl.Rows {
			s, _ := r[col].(string)
			if s == "" {
				r[col] = nil
				continue
			}
			n, _ := strconv.ParseInt(s, 10, 64)
			r[col] = n
		}
	}
}
