// Package schema declares the field contracts tables are validated against.
package schema

// Field describes one contracted column.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "int" | "text"
	Required bool   `json:"required,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`

	// MinInt, when non-nil, requires int values >= *MinInt.
	MinInt *int64 `json:"min_int,omitempty"`

	// NonEmpty requires text values to have length > 0 after coercion.
	NonEmpty bool `json:"non_empty,omitempty"`
}

// Contract is a named set of fields. Strict contracts additionally reject
// columns that are not declared.
type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	Strict bool    `json:"strict,omitempty"`
}

// Field returns the declared field with the given name, if any.
func (c Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// minOne is the lower bound shared by identifier columns.
var minOne int64 = 1

// Pages is the contract for the Wikipedia page listing: a positive page id
// and a non-empty title. Strict, so unexpected columns fail validation.
var Pages = Contract{
	Name:   "pages",
	Strict: true,
	Fields: []Field{
		{Name: "pageid", Type: "int", Required: true, MinInt: &minOne},
		{Name: "title", Type: "text", Required: true, NonEmpty: true},
	},
}
