// Package validate checks tables against schema contracts or lighter
// required-column rules. Validators never fail fast: every violation in the
// table is collected so a run's log shows the full damage, not just the first
// bad row. Results are returned as Outcome values rather than errors so
// callers can inspect the detail; the graph executor is the layer that turns
// a failed Outcome into a halted pipeline.
package validate

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"wikietl/internal/schema"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

// Outcome reports a validation run. Errors holds one message per violation,
// in row order; Err is the same set combined into a single error value for
// callers that want to propagate it as one.
type Outcome struct {
	Success     bool
	Message     string
	RecordCount int
	Errors      []string
	Err         error
}

func failure(msg string, count int, violations []string) Outcome {
	errs := make([]error, len(violations))
	for i, v := range violations {
		errs[i] = fmt.Errorf("%s", v)
	}
	return Outcome{
		Success:     false,
		Message:     msg,
		RecordCount: count,
		Errors:      violations,
		Err:         multierr.Combine(errs...),
	}
}

// Contract validates tbl against the contract: declared columns must exist,
// every value must be coercible to the declared type, and field predicates
// (MinInt, NonEmpty) must hold. All violations are aggregated. When the
// contract is strict, columns outside the contract are violations too.
func Contract(tbl table.Table, c schema.Contract) Outcome {
	var violations []string

	for _, f := range c.Fields {
		if !tbl.HasColumn(f.Name) {
			violations = append(violations, fmt.Sprintf("missing required column %q", f.Name))
		}
	}
	if c.Strict {
		for _, col := range tbl.Columns {
			if _, ok := c.Field(col); !ok {
				violations = append(violations, fmt.Sprintf("unexpected column %q", col))
			}
		}
	}
	// Cell-level checks only make sense for columns that exist.
	for _, f := range c.Fields {
		if !tbl.HasColumn(f.Name) {
			continue
		}
		for i, row := range tbl.Rows {
			if msg := checkCell(f, row, i); msg != "" {
				violations = append(violations, msg)
			}
		}
	}

	if len(violations) > 0 {
		return failure(fmt.Sprintf("schema validation failed for contract %q", c.Name), tbl.Len(), violations)
	}
	return Outcome{
		Success:     true,
		Message:     fmt.Sprintf("schema validation successful for contract %q", c.Name),
		RecordCount: tbl.Len(),
	}
}

func checkCell(f schema.Field, row records.Record, idx int) string {
	v := row[f.Name]
	if v == nil {
		if f.Required && !f.Nullable {
			return fmt.Sprintf("row %d: field %q is null", idx, f.Name)
		}
		return ""
	}
	switch f.Type {
	case "int":
		n, ok := records.AsInt(v)
		if !ok {
			return fmt.Sprintf("row %d: field %q: %q is not an int", idx, f.Name, records.AsString(v))
		}
		if f.MinInt != nil && n < *f.MinInt {
			return fmt.Sprintf("row %d: field %q: %d below minimum %d", idx, f.Name, n, *f.MinInt)
		}
	case "text", "":
		s := records.AsString(v)
		if f.NonEmpty && strings.TrimSpace(s) == "" {
			return fmt.Sprintf("row %d: field %q is empty", idx, f.Name)
		}
	default:
		return fmt.Sprintf("row %d: field %q: unknown contract type %q", idx, f.Name, f.Type)
	}
	return ""
}

// RequiredColumns is the lighter contract used when no full schema is
// defined: the named columns must be present and free of nulls. An empty
// table is a distinct failure ("no data to validate").
func RequiredColumns(tbl table.Table, columns []string) Outcome {
	if tbl.Empty() {
		return failure("table is empty", 0, []string{"no data to validate"})
	}

	var missing []string
	for _, col := range columns {
		if !tbl.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return failure("missing required columns", tbl.Len(),
			[]string{fmt.Sprintf("missing columns: %s", strings.Join(missing, ", "))})
	}

	var withNulls []string
	for _, col := range columns {
		for _, row := range tbl.Rows {
			if row[col] == nil {
				withNulls = append(withNulls, col)
				break
			}
		}
	}
	if len(withNulls) > 0 {
		return failure("null values found in required columns", tbl.Len(),
			[]string{fmt.Sprintf("null values in columns: %s", strings.Join(withNulls, ", "))})
	}

	return Outcome{
		Success:     true,
		Message:     "required-column validation successful",
		RecordCount: tbl.Len(),
	}
}
