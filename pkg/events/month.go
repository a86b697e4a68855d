package events

import (
	"fmt"
	"strconv"
	"strings"
)

// Month is a calendar month encoded as YYYYMM. Integer order is calendar
// order.
type Month int

// ParseMonth accepts YYYYMM, YYYY-MM or YYYYMMDD.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 7 && s[4] == '-':
		s = s[:4] + s[5:]
	case len(s) == 8:
		s = s[:6]
	}
	if len(s) != 6 {
		return 0, fmt.Errorf("month %q: want YYYYMM", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("month %q: %w", s, err)
	}
	m := Month(n)
	if !m.Valid() {
		return 0, fmt.Errorf("month %q: out of range", s)
	}
	return m, nil
}

// Valid reports whether m is a plausible calendar month.
func (m Month) Valid() bool {
	mm := int(m) % 100
	return mm >= 1 && mm <= 12 && m.Year() >= 1900 && m.Year() <= 2999
}

// Year returns the four-digit year.
func (m Month) Year() int { return int(m) / 100 }

// Next returns the following calendar month.
func (m Month) Next() Month {
	if int(m)%100 == 12 {
		return Month((m.Year()+1)*100 + 1)
	}
	return m + 1
}

// Prev returns the preceding calendar month.
func (m Month) Prev() Month {
	if int(m)%100 == 1 {
		return Month((m.Year()-1)*100 + 12)
	}
	return m - 1
}

// String formats m as YYYYMM.
func (m Month) String() string {
	return fmt.Sprintf("%06d", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
