// Package fallback implements the cascading filter policy: an ordered ladder
// of steps tried top to bottom until one yields rows. The final rung is never
// a filter; it is a truncation rule that keeps at least one row whenever the
// input had any, so the ladder as a whole cannot turn a non-empty table into
// an empty one. That conversion of "no matches" into an explicitly tagged
// degraded result is the point of the package: the tier that produced the
// output always travels with it, and downstream metadata/export must carry
// the tag so a degraded result is distinguishable from a genuine match.
package fallback

import (
	"context"
	"fmt"

	"wikietl/internal/table"
	"wikietl/internal/transform"
)

// Step is one rung of the ladder: either a conjunctive filter or the
// terminal truncation rule. Exactly one of the two forms is set.
type Step struct {
	// Criteria selects the filter form. Empty means this is a truncate step.
	Criteria transform.Criteria

	// Truncate marks the terminal rule: keep ceil(n/2) rows, at least one
	// when the input is non-empty.
	Truncate bool

	// Description names the step in metadata and logs; when empty, one is
	// derived from the criteria.
	Description string
}

// FilterStep builds a filter rung.
func FilterStep(desc string, criteria transform.Criteria) Step {
	return Step{Criteria: criteria, Description: desc}
}

// TruncateStep builds the terminal rung.
func TruncateStep(desc string) Step {
	return Step{Truncate: true, Description: desc}
}

func (s Step) describe(columns []string) string {
	if s.Description != "" {
		return s.Description
	}
	if s.Truncate {
		return "truncate to ceil(n/2)"
	}
	return s.Criteria.Describe(columns)
}

// Result reports which rung produced the output. Tier is the 0-based index
// into the ladder; Degraded is true whenever a rung other than the first
// produced the rows, or when the input itself was empty.
type Result struct {
	Table           table.Table
	Tier            int
	TierDescription string
	OriginalRows    int
	ResultRows      int
	Degraded        bool
}

// Cascade applies the ladder to tbl. The last step must be a truncate step
// and no earlier step may be one; anything else is a malformed ladder and an
// error. A zero-row input yields a zero-row result tagged with the terminal
// tier and no error.
func Cascade(ctx context.Context, tbl table.Table, ladder []Step) (Result, error) {
	if len(ladder) == 0 {
		return Result{}, fmt.Errorf("fallback: ladder must not be empty")
	}
	for i, s := range ladder[:len(ladder)-1] {
		if s.Truncate {
			return Result{}, fmt.Errorf("fallback: truncate step at position %d; only the final step may truncate", i)
		}
	}
	last := ladder[len(ladder)-1]
	if !last.Truncate {
		return Result{}, fmt.Errorf("fallback: final step must be a truncate step")
	}

	for i, s := range ladder {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		var out table.Table
		if s.Truncate {
			out = truncateHalf(tbl)
		} else {
			out = transform.Filter(tbl, s.Criteria)
		}
		if out.Empty() && !s.Truncate {
			continue
		}
		return Result{
			Table:           out,
			Tier:            i,
			TierDescription: s.describe(tbl.Columns),
			OriginalRows:    tbl.Len(),
			ResultRows:      out.Len(),
			Degraded:        i > 0 || tbl.Empty(),
		}, nil
	}
	// Unreachable: the terminal step always returns.
	return Result{}, fmt.Errorf("fallback: ladder produced no step result")
}

// truncateHalf keeps the first ceil(n/2) rows, so any non-empty input keeps
// at least one row. A zero-row input stays zero rows.
func truncateHalf(tbl table.Table) table.Table {
	n := (tbl.Len() + 1) / 2
	out := table.New(tbl.Columns...)
	for _, r := range tbl.Rows[:n] {
		out.MustAppend(r.Clone())
	}
	return out
}
