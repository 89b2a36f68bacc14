// Package table defines the in-memory tabular model passed between pipeline
// stages: an ordered column schema plus a slice of records. Every stage
// operation returns a new Table; inputs are never mutated.
package table

import (
	"fmt"

	"wikietl/pkg/records"
)

// Table is an ordered sequence of records sharing a fixed column set.
type Table struct {
	Columns []string
	Rows    []records.Record
}

// New constructs an empty table with the given column order.
func New(columns ...string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has zero rows. A zero-row table still
// carries its column set.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// HasColumn reports whether name is part of the declared column set.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy: new column slice, new row slice, cloned records.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]records.Record, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Append adds a row. The record is kept as-is; callers hand over ownership.
// It returns an error when the record's cells do not match the declared
// column set, which keeps tables structurally valid by construction.
func (t *Table) Append(r records.Record) error {
	if len(r) != len(t.Columns) {
		return fmt.Errorf("table: record has %d cells, want %d", len(r), len(t.Columns))
	}
	for _, c := range t.Columns {
		if _, ok := r[c]; !ok {
			return fmt.Errorf("table: record missing column %q", c)
		}
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// MustAppend is Append for rows built in-process from the table's own column
// list, where a mismatch is a programming error.
func (t *Table) MustAppend(r records.Record) {
	if err := t.Append(r); err != nil {
		panic(err)
	}
}

// Row builds a record from values aligned with the table's column order.
func (t Table) Row(values ...any) (records.Record, error) {
	if len(values) != len(t.Columns) {
		return nil, fmt.Errorf("table: %d values for %d columns", len(values), len(t.Columns))
	}
	r := make(records.Record, len(t.Columns))
	for i, c := range t.Columns {
		r[c] = values[i]
	}
	return r, nil
}

// Validate checks structural validity: every row carries exactly the declared
// column set. It returns the first violation found.
func (t Table) Validate() error {
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return fmt.Errorf("table: row %d has %d cells, want %d", i, len(r), len(t.Columns))
		}
		for _, c := range t.Columns {
			if _, ok := r[c]; !ok {
				return fmt.Errorf("table: row %d missing column %q", i, c)
			}
		}
	}
	return nil
}
