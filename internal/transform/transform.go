// Package transform implements the tabular transform service: text cleaning,
// predicate filtering, key-based de-duplication, and constant-column
// annotation. Every operation takes a table and returns a new one; inputs are
// never mutated, so a stage can safely hand its input to several downstream
// consumers.
package transform

import (
	"sort"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"wikietl/internal/table"
	"wikietl/pkg/records"
)

// nullSentinels are textual values normalized to a genuine null during
// cleaning. "nan" and "None" show up in data that round-tripped through
// dataframe tooling.
var nullSentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"None": {},
}

// cleaner folds non-breaking spaces into ordinary ones and renormalizes to
// NFC, so downstream whitespace collapsing sees a single space codepoint.
var cleaner = transform.Chain(
	norm.NFD,
	runes.Map(func(r rune) rune {
		if unicode.Is(unicode.Zs, r) {
			return ' '
		}
		return r
	}),
	norm.NFC,
)

// CleanTextFields trims leading/trailing whitespace, collapses internal
// whitespace runs to a single space, and normalizes empty-string and textual
// null sentinels to nil in the named fields. Other fields and non-string
// values pass through unchanged.
func CleanTextFields(tbl table.Table, fields ...string) table.Table {
	out := tbl.Clone()
	for _, r := range out.Rows {
		for _, f := range fields {
			v, ok := r[f]
			if !ok {
				continue
			}
			s, isStr := v.(string)
			if !isStr {
				continue
			}
			if folded, _, err := transform.String(cleaner, s); err == nil {
				s = folded
			}
			s = strings.Join(strings.Fields(s), " ")
			if _, isNull := nullSentinels[s]; isNull {
				r[f] = nil
			} else {
				r[f] = s
			}
		}
	}
	return out
}

// Filter retains the rows for which every criterion holds (logical AND
// across columns). A criterion on a column the table does not carry matches
// nothing, so such a filter yields an empty table rather than a surprise
// pass-through.
func Filter(tbl table.Table, criteria Criteria) table.Table {
	out := table.New(tbl.Columns...)
	for _, r := range tbl.Rows {
		keep := true
		for col, c := range criteria {
			if !c.Matches(r[col]) {
				keep = false
				break
			}
		}
		if keep {
			out.MustAppend(r.Clone())
		}
	}
	return out
}

// Dedup retains the first occurrence per distinct key tuple, preserving the
// original row order. When no key columns are given, the whole record (over
// the table's declared columns) is the key. Key tuples are hashed with xxh3
// over a length-prefixed encoding so that ("ab","c") and ("a","bc") cannot
// collide structurally.
func Dedup(tbl table.Table, keyColumns ...string) table.Table {
	keys := keyColumns
	if len(keys) == 0 {
		keys = tbl.Columns
	}

	out := table.New(tbl.Columns...)
	seen := make(map[uint64]struct{}, tbl.Len())
	var buf []byte
	for _, r := range tbl.Rows {
		buf = buf[:0]
		for _, k := range keys {
			v, ok := r[k]
			if !ok || v == nil {
				buf = append(buf, 0xFF, 0x00)
				continue
			}
			s := records.AsString(v)
			buf = appendLen(buf, len(s))
			buf = append(buf, s...)
		}
		h := xxh3.Hash(buf)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out.MustAppend(r.Clone())
	}
	return out
}

func appendLen(b []byte, n int) []byte {
	return append(b, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AddColumns broadcasts each literal value across all rows into a (possibly
// new) column. Existing columns are overwritten for every row; new columns
// are appended to the column order alphabetically-stably in the order given.
func AddColumns(tbl table.Table, values map[string]any, order ...string) table.Table {
	out := tbl.Clone()

	cols := order
	if len(cols) == 0 {
		cols = make([]string, 0, len(values))
		for k := range values {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}

	for _, col := range cols {
		v, ok := values[col]
		if !ok {
			continue
		}
		if !out.HasColumn(col) {
			out.Columns = append(out.Columns, col)
		}
		for _, r := range out.Rows {
			r[col] = v
		}
	}
	return out
}
