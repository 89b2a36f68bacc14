// Package pgstore implements a Postgres storage backend using pgx v5.
// Destinations name tables (optionally schema-qualified); Save drops and
// recreates the destination, then bulk-loads rows with COPY.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wikietl/internal/storage"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return Open(ctx, cfg.DSN)
	})
}

// Store is a Postgres-backed storage.Backend.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pgx pool using the given DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("pgstore: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: pgxpool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// splitFQN converts "schema.table" into a pgx.Identifier; without a dot it
// returns {"table"}. Destinations with a file extension shed it first.
func splitFQN(destination string) pgx.Identifier {
	name := destination
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		// "public.pages" keeps both parts; "pages.csv" sheds the extension.
		if !strings.ContainsAny(name[i+1:], "/") && isExtension(name[i+1:]) {
			name = name[:i]
		}
	}
	parts := strings.Split(name, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

func isExtension(s string) bool {
	switch strings.ToLower(s) {
	case "csv", "json":
		return true
	}
	return false
}

// Save recreates the destination table and COPYs every row into it. The
// empty-table rules match the file backends; a placeholder creates the table
// with no rows.
func (s *Store) Save(ctx context.Context, tbl table.Table, destination string, opts storage.Options) storage.Outcome {
	if tbl.Empty() && !opts.Placeholder {
		return storage.Outcome{
			Success:     false,
			Message:     "cannot save empty table",
			RecordCount: 0,
			Errors:      []string{"table is empty"},
		}
	}

	id := splitFQN(destination)
	fq := id.Sanitize()

	colDefs := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		colDefs[i] = pgx.Identifier{c}.Sanitize() + " " + columnType(tbl, c)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.Failure("failed to begin transaction", tbl.Len(), err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+fq); err != nil {
		return storage.Failure("failed to drop table", tbl.Len(), err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", fq, strings.Join(colDefs, ", "))); err != nil {
		return storage.Failure("failed to create table", tbl.Len(), err)
	}

	if !tbl.Empty() {
		rows := make([][]any, tbl.Len())
		for i, r := range tbl.Rows {
			row := make([]any, len(tbl.Columns))
			for j, c := range tbl.Columns {
				row[j] = r[c]
			}
			rows[i] = row
		}
		if _, err := tx.CopyFrom(ctx, id, tbl.Columns, pgx.CopyFromRows(rows)); err != nil {
			return storage.Failure("failed to copy rows", tbl.Len(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.Failure("failed to commit", tbl.Len(), err)
	}

	out := storage.Outcome{
		Success:     true,
		Message:     fmt.Sprintf("data saved to postgres table %s", fq),
		RecordCount: tbl.Len(),
	}
	if tbl.Empty() {
		out.Message = fmt.Sprintf("placeholder table %s created", fq)
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
		return "BIGINT"
	}
	return "TEXT"
}

// undefinedTable is the Postgres error code for a missing relation.
const undefinedTable = "42P01"

// Load reads the destination table back. A missing table reports
// storage.ErrNotFound.
func (s *Store) Load(ctx context.Context, source string, _ storage.Options) (table.Table, error) {
	id := splitFQN(source)

	rows, err := s.pool.Query(ctx, "SELECT * FROM "+id.Sanitize())
	if err != nil {
		return table.Table{}, loadErr(source, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	tbl := table.New(cols...)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return table.Table{}, fmt.Errorf("pgstore: scan: %w", err)
		}
		rec := make(records.Record, len(cols))
		for i, c := range cols {
			rec[c] = foldValue(vals[i])
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, loadErr(source, err)
	}
	return tbl, nil
}

func loadErr(source string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, source)
	}
	return fmt.Errorf("pgstore: query: %w", err)
}

func foldValue(v any) any {
	switch t := v.(type) {
	case int32:
		return int64(t)
	case []byte:
		return string(t)
	default:
		return t
	}
}
