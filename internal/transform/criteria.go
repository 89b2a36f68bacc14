package transform

import (
	"fmt"
	"strings"

	"wikietl/pkg/records"
)

// MatchKind selects how a Criterion compares a cell against its term.
type MatchKind int

const (
	// MatchExact is case-sensitive equality on the string form of the cell.
	MatchExact MatchKind = iota
	// MatchContains is a case-insensitive substring match.
	MatchContains
	// MatchPrefix is a case-insensitive prefix match.
	MatchPrefix
)

// Criterion is a predicate over a single column.
type Criterion struct {
	Kind MatchKind
	Term string
}

// Criteria maps column name to the criterion that must hold there. A row is
// retained only when every criterion holds.
type Criteria map[string]Criterion

const (
	containsPrefix   = "contains:"
	startswithPrefix = "startswith:"
)

// ParseCriterion interprets the textual filter form used in job definitions:
// "contains:X" and "startswith:X" select the fuzzy matches, anything else is
// an exact match on the whole value.
func ParseCriterion(s string) Criterion {
	switch {
	case strings.HasPrefix(s, containsPrefix):
		return Criterion{Kind: MatchContains, Term: strings.TrimPrefix(s, containsPrefix)}
	case strings.HasPrefix(s, startswithPrefix):
		return Criterion{Kind: MatchPrefix, Term: strings.TrimPrefix(s, startswithPrefix)}
	default:
		return Criterion{Kind: MatchExact, Term: s}
	}
}

// Matches reports whether the cell value satisfies the criterion. Nil cells
// never match.
func (c Criterion) Matches(v any) bool {
	if v == nil {
		return false
	}
	s := records.AsString(v)
	switch c.Kind {
	case MatchContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(c.Term))
	case MatchPrefix:
		return strings.HasPrefix(strings.ToLower(s), strings.ToLower(c.Term))
	default:
		return s == c.Term
	}
}

// String renders the criterion back into its textual form, for logs and
// metadata tags.
func (c Criterion) String() string {
	switch c.Kind {
	case MatchContains:
		return containsPrefix + c.Term
	case MatchPrefix:
		return startswithPrefix + c.Term
	default:
		return c.Term
	}
}

// Describe renders a criteria set as a stable, readable string, e.g.
// `title contains:List of`, joined by " AND " across columns.
func (cs Criteria) Describe(columns []string) string {
	parts := make([]string, 0, len(cs))
	for _, col := range columns {
		if c, ok := cs[col]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", col, c))
		}
	}
	// Criteria on columns outside the declared order still get reported.
	for col, c := range cs {
		seen := false
		for _, known := range columns {
			if known == col {
				seen = true
				break
			}
		}
		if !seen {
			parts = append(parts, fmt.Sprintf("%s %s", col, c))
		}
	}
	return strings.Join(parts, " AND ")
}
