package jsonstore

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

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	in := table.New("pageid", "title")
	in.MustAppend(records.Record{"pageid": int64(1), "title": "Main Page"})
	in.MustAppend(records.Record{"pageid": int64(2), "title": "List of lakes"})

	s := newStore(t)
	ctx := context.Background()
	out := s.Save(ctx, in, "pages.json", storage.Options{})
	if !out.Success {
		t.Fatalf("save failed: %+v", out)
	}

	got, err := s.Load(ctx, "pages.json", storage.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Column order is sorted on load; row content round-trips including
	// integer values.
	if !reflect.DeepEqual(got.Columns, []string{"pageid", "title"}) {
		t.Fatalf("columns %v", got.Columns)
	}
	if !reflect.DeepEqual(got.Rows, in.Rows) {
		t.Fatalf("rows %#v, want %#v", got.Rows, in.Rows)
	}
}

func TestArtifactShape(t *testing.T) {
	t.Parallel()

	in := table.New("title")
	in.MustAppend(records.Record{"title": "A"})

	s := newStore(t)
	if out := s.Save(context.Background(), in, "shape.json", storage.Options{}); !out.Success {
		t.Fatalf("save failed: %+v", out)
	}
	data, err := os.ReadFile(filepath.Join(s.BaseDir, "shape.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[\n") {
		t.Fatalf("not a record-oriented array: %q", text)
	}
	if !strings.Contains(text, "\n  {") {
		t.Fatalf("not 2-space indented: %q", text)
	}
}

func TestSaveEmptyRejectedAndPlaceholder(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	ctx := context.Background()
	empty := table.New("a")

	if out := s.Save(ctx, empty, "no.json", storage.Options{}); out.Success {
		t.Fatalf("empty save must fail")
	}
	if _, err := os.Stat(filepath.Join(s.BaseDir, "no.json")); !os.IsNotExist(err) {
		t.Fatalf("artifact was written for rejected save")
	}

	out := s.Save(ctx, empty, "ph.json", storage.Options{Placeholder: true})
	if !out.Success {
		t.Fatalf("placeholder save failed: %+v", out)
	}
	data, err := os.ReadFile(filepath.Join(s.BaseDir, "ph.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("placeholder artifact %q, want empty array", data)
	}
}

func TestLoadNotFound(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	_, err := s.Load(context.Background(), "missing.json", storage.Options{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
