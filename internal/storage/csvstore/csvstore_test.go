package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"wikietl/internal/storage"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func newStore(tb testing.TB) *Store {
	tb.Helper()
	s, err := New(tb.TempDir())
	if err != nil {
		tb.Fatalf("new store: %v", err)
	}
	return s
}

func pages(tb testing.TB) table.Table {
	tb.Helper()
	tbl := table.New("pageid", "title")
	tbl.MustAppend(records.Record{"pageid": int64(1), "title": "Main Page"})
	tbl.MustAppend(records.Record{"pageid": int64(2), "title": "List of lakes"})
	return tbl
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()

	in := pages(t)
	out := s.Save(ctx, in, "sub/pages.csv", storage.Options{})
	if !out.Success {
		t.Fatalf("save failed: %+v", out)
	}
	if out.RecordCount != 2 {
		t.Fatalf("record count %d, want 2", out.RecordCount)
	}

	got, err := s.Load(ctx, "sub/pages.csv", storage.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, in.Columns) {
		t.Fatalf("columns %v, want %v", got.Columns, in.Columns)
	}
	// Integer columns survive the round trip.
	if !reflect.DeepEqual(got.Rows, in.Rows) {
		t.Fatalf("rows %#v, want %#v", got.Rows, in.Rows)
	}
}

func TestSaveEmptyRejected(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	out := s.Save(context.Background(), table.New("a", "b"), "empty.csv", storage.Options{})
	if out.Success {
		t.Fatalf("empty save must fail")
	}
	if _, err := os.Stat(filepath.Join(s.BaseDir, "empty.csv")); !os.IsNotExist(err) {
		t.Fatalf("artifact was written for rejected save")
	}
}

func TestSavePlaceholder(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	out := s.Save(context.Background(), table.New("pageid", "title"), "ph.csv", storage.Options{Placeholder: true})
	if !out.Success {
		t.Fatalf("placeholder save failed: %+v", out)
	}
	if v, ok := out.Meta["is_placeholder"].(bool); !ok || !v {
		t.Fatalf("placeholder not tagged: %+v", out.Meta)
	}

	data, err := os.ReadFile(filepath.Join(s.BaseDir, "ph.csv"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if strings.TrimSpace(string(data)) != "pageid,title" {
		t.Fatalf("placeholder is not headers-only: %q", data)
	}
}

func TestLoadNotFound(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.Load(context.Background(), "missing.csv", storage.Options{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	b, err := storage.Open(context.Background(), storage.Config{Kind: "csv", BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open via registry: %v", err)
	}
	if _, ok := b.(*Store); !ok {
		t.Fatalf("registry returned %T", b)
	}
}
