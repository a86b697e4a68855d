// Package events defines the canonical record every source adapter emits.
//
// An Event is one row of a source file after normalization: its type, the
// month it belongs to, the generation that produced it, the entity it is
// attributed to, a fixed set of dimension tags, a count and two optional
// numeric measures. Nothing downstream of the adapters inspects raw source
// strings; redaction has already been turned into an absent Value.
package events

import "strings"

// Type identifies the kind of personnel event.
type Type string

// Event types.
const (
	Separation Type = "separation"
	Accession  Type = "accession"
	Snapshot   Type = "employment_snapshot"
)

// Types lists every event type in a stable order.
func Types() []Type {
	return []Type{Separation, Accession, Snapshot}
}

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case Separation, Accession, Snapshot:
		return true
	}
	return false
}

// String returns the type as a string.
func (t Type) String() string {
	return string(t)
}

// Dimension is a categorical attribute of an event.
type Dimension int

// Dimensions. Agency is the entity and is not a tag.
const (
	Occupation Dimension = iota
	OccupationFamily
	State
	AgeBracket
	Education
	Grade
	Category
	SalaryBracket
	NumDimensions
)

var dimensionNames = [NumDimensions]string{
	Occupation:       "occupation",
	OccupationFamily: "occupation_family",
	State:            "state",
	AgeBracket:       "age_bracket",
	Education:        "education",
	Grade:            "grade",
	Category:         "separation_category",
	SalaryBracket:    "salary_bracket",
}

// String returns the dimension name used in manifests and diagnostics.
func (d Dimension) String() string {
	if d < 0 || d >= NumDimensions {
		return "unknown"
	}
	return dimensionNames[d]
}

// ParseDimension resolves a dimension name.
func ParseDimension(name string) (Dimension, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d, n := range dimensionNames {
		if n == name {
			return Dimension(d), true
		}
	}
	return 0, false
}

// Tags holds one value per dimension. The empty string means the dimension
// is missing for the event.
type Tags [NumDimensions]string

// Has reports whether every listed dimension is present.
func (t Tags) Has(dims ...Dimension) bool {
	for _, d := range dims {
		if t[d] == "" {
			return false
		}
	}
	return true
}

// Event is a normalized source row.
type Event struct {
	Type       Type
	Month      Month
	Generation string
	Rank       int
	Entity     string
	SubEntity  string
	EntityName string
	Tags       Tags
	Labels     Tags
	Count      int64
	Salary     Value
	Service    Value
}

// Derive fills tags computed from other fields. It is idempotent.
func (e *Event) Derive() {
	if units, ok := e.Salary.Units(); ok {
		e.Tags[SalaryBracket] = BracketOf(units)
	}
}
