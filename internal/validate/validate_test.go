package validate

import (
	"strings"
	"testing"

	"wikietl/internal/schema"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

func pagesTable(tb testing.TB, rows ...records.Record) table.Table {
	tb.Helper()
	tbl := table.New("pageid", "title")
	for _, r := range rows {
		if err := tbl.Append(r); err != nil {
			tb.Fatalf("append: %v", err)
		}
	}
	return tbl
}

func TestContractOK(t *testing.T) {
	t.Parallel()

	tbl := pagesTable(t,
		records.Record{"pageid": int64(1), "title": "Main Page"},
		records.Record{"pageid": int64(2), "title": "List of lakes"},
	)
	out := Contract(tbl, schema.Pages)
	if !out.Success {
		t.Fatalf("expected success, got errors: %v", out.Errors)
	}
	if out.RecordCount != tbl.Len() {
		t.Fatalf("record count %d, want %d", out.RecordCount, tbl.Len())
	}
	if out.Err != nil {
		t.Fatalf("expected nil combined error, got %v", out.Err)
	}
}

func TestContractMissingColumnNamesIt(t *testing.T) {
	t.Parallel()

	tbl := table.New("pageid")
	tbl.MustAppend(records.Record{"pageid": int64(1)})

	out := Contract(tbl, schema.Pages)
	if out.Success {
		t.Fatalf("expected failure")
	}
	found := false
	for _, e := range out.Errors {
		if strings.Contains(e, `"title"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors do not name the missing column: %v", out.Errors)
	}
}

func TestContractAggregatesAllViolations(t *testing.T) {
	t.Parallel()

	tbl := pagesTable(t,
		records.Record{"pageid": int64(0), "title": ""},   // two violations
		records.Record{"pageid": "abc", "title": "okay"},  // one violation
		records.Record{"pageid": int64(3), "title": "ok"}, // clean
	)
	out := Contract(tbl, schema.Pages)
	if out.Success {
		t.Fatalf("expected failure")
	}
	if len(out.Errors) != 3 {
		t.Fatalf("expected 3 aggregated violations, got %d: %v", len(out.Errors), out.Errors)
	}
	if out.Err == nil {
		t.Fatalf("expected combined error")
	}
}

func TestContractStrictRejectsExtraColumns(t *testing.T) {
	t.Parallel()

	tbl := table.New("pageid", "title", "extra")
	tbl.MustAppend(records.Record{"pageid": int64(1), "title": "A", "extra": "x"})

	out := Contract(tbl, schema.Pages)
	if out.Success {
		t.Fatalf("strict contract accepted extra column")
	}
	found := false
	for _, e := range out.Errors {
		if strings.Contains(e, `unexpected column "extra"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors do not name the extra column: %v", out.Errors)
	}
}

func TestRequiredColumnsEmptyTable(t *testing.T) {
	t.Parallel()

	out := RequiredColumns(table.New("a"), []string{"a"})
	if out.Success {
		t.Fatalf("expected failure for empty table")
	}
	if len(out.Errors) != 1 || out.Errors[0] != "no data to validate" {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
}

func TestRequiredColumns(t *testing.T) {
	t.Parallel()

	tbl := table.New("a", "b")
	tbl.MustAppend(records.Record{"a": "x", "b": nil})

	out := RequiredColumns(tbl, []string{"a", "c"})
	if out.Success || !strings.Contains(out.Errors[0], "c") {
		t.Fatalf("missing column not reported: %+v", out)
	}

	out = RequiredColumns(tbl, []string{"a", "b"})
	if out.Success || !strings.Contains(out.Errors[0], "b") {
		t.Fatalf("null column not reported: %+v", out)
	}

	out = RequiredColumns(tbl, []string{"a"})
	if !out.Success || out.RecordCount != 1 {
		t.Fatalf("expected success, got %+v", out)
	}
}
