package storage

import (
	"context"
	"sort"
	"strings"

	"wikietl/internal/table"
	"wikietl/pkg/records"
)

// Exporter layers metadata-tagged exports over a Backend.
type Exporter struct {
	Backend Backend
}

// MetaPrefix is prepended to metadata keys when they are materialized as
// export columns.
const MetaPrefix = "meta_"

// ExportWithMetadata merges each metadata entry into a copy of the table as a
// meta_<key> column, then saves it. On success the outcome message names the
// metadata keys that were attached. The input table is never mutated and the
// empty-table rules of Save apply unchanged.
func (e Exporter) ExportWithMetadata(ctx context.Context, tbl table.Table, destination string, metadata map[string]any, opts Options) Outcome {
	out := tbl
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		out = tbl.Clone()
		for _, k := range keys {
			col := MetaPrefix + k
			if !out.HasColumn(col) {
				out.Columns = append(out.Columns, col)
			}
			for _, r := range out.Rows {
				r[col] = normalizeMetaValue(metadata[k])
			}
		}
	}

	res := e.Backend.Save(ctx, out, destination, opts)
	if res.Success && len(keys) > 0 {
		res.Message += " (with metadata: " + strings.Join(keys, ", ") + ")"
	}
	return res
}

// normalizeMetaValue keeps metadata cells within the table scalar model.
func normalizeMetaValue(v any) any {
	switch t := v.(type) {
	case nil, string, int64:
		return t
	case int:
		return int64(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return records.AsString(v)
	}
}
