package events

import (
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/fedtrack/pkg/constants"
)

// Value is an optional non-negative measure stored in fixed point
// (1/ValueScale units). The zero Value is absent.
type Value struct {
	units   uint64
	present bool
}

// Absent returns a value that carries no information.
func Absent() Value { return Value{} }

// Present returns a value holding v. Negative or non-finite input is absent.
func Present(v float64) Value {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) || v*constants.ValueScale > math.MaxUint64/2 {
		return Value{}
	}
	return Value{units: uint64(math.Round(v * constants.ValueScale)), present: true}
}

// FromUnits returns a present value from fixed-point units.
func FromUnits(units uint64) Value {
	return Value{units: units, present: true}
}

// ParseValue converts a raw field into a Value. Redaction tokens, empty
// fields and anything unparsable become absent, never zero.
func ParseValue(raw string, redacted []string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}
	}
	for _, tok := range redacted {
		if strings.EqualFold(raw, tok) {
			return Value{}
		}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return Value{}
	}
	return Present(v)
}

// IsPresent reports whether the value holds a measure.
func (v Value) IsPresent() bool { return v.present }

// Units returns the fixed-point representation.
func (v Value) Units() (uint64, bool) { return v.units, v.present }

// Float returns the value as a float64.
func (v Value) Float() (float64, bool) {
	if !v.present {
		return 0, false
	}
	return float64(v.units) / constants.ValueScale, true
}
