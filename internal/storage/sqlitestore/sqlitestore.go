// Package sqlitestore implements a SQLite storage backend using database/sql
// with the modernc.org/sqlite driver. Destinations name tables inside a
// single database file under the base directory. SQLite has no bulk-load
// primitive, so saves run batched INSERTs inside one transaction.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"wikietl/internal/storage"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return Open(ctx, cfg.BaseDir)
	})
}

// Store is a SQLite-backed storage.Backend. One table per destination name.
type Store struct {
	db *sql.DB
}

// dbFile is the database file created under the base directory.
const dbFile = "wikietl.db"

// Open opens (creating if needed) the database file under baseDir.
func Open(ctx context.Context, baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("sqlitestore: create base dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(baseDir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// ident quotes a SQLite identifier.
func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// tableName turns a destination like "pages.csv" into a bare table name.
func tableName(destination string) string {
	base := filepath.Base(filepath.FromSlash(destination))
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// Save drops and recreates the destination table, then inserts every row in
// one transaction. Column types are inferred: INTEGER when every non-nil
// value is an int64, TEXT otherwise. Empty-table rules match the file
// backends; a placeholder creates the table with no rows.
func (s *Store) Save(ctx context.Context, tbl table.Table, destination string, opts storage.Options) storage.Outcome {
	if tbl.Empty() && !opts.Placeholder {
		return storage.Outcome{
			Success:     false,
			Message:     "cannot save empty table",
			RecordCount: 0,
			Errors:      []string{"table is empty"},
		}
	}
	name := tableName(destination)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Failure("failed to begin transaction", tbl.Len(), err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident(name)); err != nil {
		return storage.Failure("failed to drop table", tbl.Len(), err)
	}
	cols := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = ident(c) + " " + columnType(tbl, c)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", ident(name), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return storage.Failure("failed to create table", tbl.Len(), err)
	}

	if !tbl.Empty() {
		quoted := make([]string, len(tbl.Columns))
		marks := make([]string, len(tbl.Columns))
		for i, c := range tbl.Columns {
			quoted[i] = ident(c)
			marks[i] = "?"
		}
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			ident(name), strings.Join(quoted, ", "), strings.Join(marks, ", ")))
		if err != nil {
			return storage.Failure("failed to prepare insert", tbl.Len(), err)
		}
		defer stmt.Close()
		args := make([]any, len(tbl.Columns))
		for _, r := range tbl.Rows {
			for i, c := range tbl.Columns {
				args[i] = r[c]
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return storage.Failure("failed to insert row", tbl.Len(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Failure("failed to commit", tbl.Len(), err)
	}

	out := storage.Outcome{
		Success:     true,
		Message:     fmt.Sprintf("data saved to sqlite table %s", name),
		RecordCount: tbl.Len(),
	}
	if tbl.Empty() {
		out.Message = fmt.Sprintf("placeholder table %s created", name)
		out.Meta = map[string]any{"is_placeholder": true}
	}
	return out
}

func columnType(tbl table.Table, col string) string {
	sawInt := false
	for _, r := range tbl.Rows {
		switch r[col].(type) {
		case nil:
		case int64:
			sawInt = true
		default:
			return "TEXT"
		}
	}
	if sawInt {
		return "INTEGER"
	}
	return "TEXT"
}

// Load reads the destination table back, preserving insertion order via
// rowid. A missing table reports storage.ErrNotFound.
func (s *Store) Load(ctx context.Context, source string, _ storage.Options) (table.Table, error) {
	name := tableName(source)

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+ident(name)+" ORDER BY rowid")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return table.Table{}, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		return table.Table{}, fmt.Errorf("sqlitestore: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return table.Table{}, fmt.Errorf("sqlitestore: columns: %w", err)
	}
	tbl := table.New(cols...)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return table.Table{}, fmt.Errorf("sqlitestore: scan: %w", err)
		}
		rec := make(records.Record, len(cols))
		for i, c := range cols {
			rec[c] = normalize(vals[i])
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, fmt.Errorf("sqlitestore: rows: %w", err)
	}
	return tbl, nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return t
	}
}
