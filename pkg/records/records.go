// Package records defines the scalar record type shared by every stage of the
// pipeline. A Record maps column names to scalar values (int64, string, or
// nil). Column ordering lives one level up, in the table package; a Record on
// its own is just the cell data.
package records

import (
	"fmt"
	"strconv"
)

// Record is one row of tabular data. Values are int64, string, or nil once a
// table has passed through coercion; raw sources may briefly hold float64
// (JSON numbers) or bool before that.
type Record map[string]any

// Clone returns a shallow copy of the record. Values are scalars, so a
// shallow copy is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AsString converts common scalar types to their string form without going
// through fmt for the frequent cases. Nil becomes the empty string.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

// AsInt attempts to interpret v as an int64. JSON decoding produces float64
// for numbers and CSV loading produces strings, so both are accepted when
// they carry an integral value.
func AsInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		n := int64(t)
		if float64(n) == t {
			return n, true
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
