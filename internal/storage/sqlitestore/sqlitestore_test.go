package sqlitestore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"wikietl/internal/storage"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	tbl := table.New("pageid", "title")
	tbl.MustAppend(records.Record{"pageid": int64(1), "title": "Go"})
	tbl.MustAppend(records.Record{"pageid": int64(2), "title": "SQLite"})

	out := s.Save(ctx, tbl, "pages.csv", storage.Options{})
	if !out.Success || out.RecordCount != 2 {
		t.Fatalf("save failed: %+v", out)
	}

	got, err := s.Load(ctx, "pages.csv", storage.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, tbl.Columns) {
		t.Fatalf("columns %v, want %v", got.Columns, tbl.Columns)
	}
	if !reflect.DeepEqual(got.Rows, tbl.Rows) {
		t.Fatalf("rows %v, want %v", got.Rows, tbl.Rows)
	}
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	first := table.New("title")
	first.MustAppend(records.Record{"title": "old"})
	if out := s.Save(ctx, first, "pages", storage.Options{}); !out.Success {
		t.Fatalf("first save: %+v", out)
	}

	second := table.New("title")
	second.MustAppend(records.Record{"title": "new"})
	if out := s.Save(ctx, second, "pages", storage.Options{}); !out.Success {
		t.Fatalf("second save: %+v", out)
	}

	got, err := s.Load(ctx, "pages", storage.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 1 || got.Rows[0]["title"] != "new" {
		t.Fatalf("overwrite not applied: %+v", got.Rows)
	}
}

func TestEmptyTableRules(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	empty := table.New("pageid", "title")

	if out := s.Save(ctx, empty, "pages", storage.Options{}); out.Success {
		t.Fatalf("empty save must fail: %+v", out)
	}

	out := s.Save(ctx, empty, "pages", storage.Options{Placeholder: true})
	if !out.Success {
		t.Fatalf("placeholder save failed: %+v", out)
	}
	if out.Meta["is_placeholder"] != true {
		t.Fatalf("placeholder not tagged: %+v", out.Meta)
	}

	got, err := s.Load(ctx, "pages", storage.Options{})
	if err != nil {
		t.Fatalf("load placeholder: %v", err)
	}
	if got.Len() != 0 || !reflect.DeepEqual(got.Columns, []string{"pageid", "title"}) {
		t.Fatalf("placeholder table wrong: %+v", got)
	}
}

func TestLoadMissingTable(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	_, err := s.Load(context.Background(), "absent", storage.Options{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"pages.csv", "pages"},
		{"out/filtered_pages.json", "filtered_pages"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := tableName(c.in); got != c.want {
			t.Errorf("tableName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
