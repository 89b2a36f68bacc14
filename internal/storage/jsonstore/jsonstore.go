// Package jsonstore implements the JSON storage backend: a record-oriented
// array with 2-space indentation, relative destinations resolved against a
// base directory created on demand. A placeholder export writes an empty
// array.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"wikietl/internal/storage"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func init() {
	storage.Register("json", func(_ context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(cfg.BaseDir)
	})
}

// Store is a JSON file backend rooted at BaseDir.
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
		return nil, fmt.Errorf("jsonstore: create base dir: %w", err)
	}
	return &Store{BaseDir: baseDir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(name))
}

// Save writes the table as a record array. The empty-table rules match the
// CSV backend: rejected without the placeholder option, an empty array with
// it.
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

	recs := make([]map[string]any, 0, tbl.Len())
	for _, r := range tbl.Rows {
		recs = append(recs, map[string]any(r))
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return storage.Failure("failed to encode JSON", tbl.Len(), err)
	}

	dest := s.path(destination)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return storage.Failure("failed to create destination directory", tbl.Len(), err)
	}
	if err := os.WriteFile(dest, append(data, '\n'), 0o644); err != nil {
		return storage.Failure("failed to write JSON file", tbl.Len(), err)
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

// Load reads a JSON record array back into a table. JSON objects carry no
// key order, so the column order is the sorted union of keys; callers that
// need a particular order re-project. Numbers arrive as float64 and integral
// values are folded back to int64 to keep the scalar model stable.
func (s *Store) Load(ctx context.Context, source string, _ storage.Options) (table.Table, error) {
	if err := ctx.Err(); err != nil {
		return table.Table{}, err
	}
	data, err := os.ReadFile(s.path(source))
	if err != nil {
		if os.IsNotExist(err) {
			return table.Table{}, fmt.Errorf("%w: %s", storage.ErrNotFound, source)
		}
		return table.Table{}, fmt.Errorf("jsonstore: read: %w", err)
	}

	var recs []map[string]any
	if err := json.Unmarshal(data, &recs); err != nil {
		return table.Table{}, fmt.Errorf("jsonstore: decode: %w", err)
	}

	colSet := map[string]struct{}{}
	for _, m := range recs {
		for k := range m {
			colSet[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	tbl := table.New(cols...)
	for _, m := range recs {
		rec := make(records.Record, len(cols))
		for _, col := range cols {
			rec[col] = foldNumber(m[col])
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
	return tbl, nil
}

func foldNumber(v any) any {
	if f, ok := v.(float64); ok {
		if n := int64(f); float64(n) == f {
			return n
		}
	}
	return v
}
