package events_test

import (
	"testing"

	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    events.Month
		wantErr bool
	}{
		{"202309", 202309, false},
		{" 2023-10 ", 202310, false},
		{"20231015", 202310, false},
		{"202313", 0, true},
		{"2023", 0, true},
		{"abcdef", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := events.ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthArithmetic(t *testing.T) {
	assert.Equal(t, events.Month(202401), events.Month(202312).Next())
	assert.Equal(t, events.Month(202310), events.Month(202309).Next())
	assert.Equal(t, events.Month(202312), events.Month(202401).Prev())
	assert.Equal(t, "202309", events.Month(202309).String())

	var m events.Month
	require.NoError(t, m.UnmarshalText([]byte("202511")))
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "202511", string(text))
}

func TestParseValue(t *testing.T) {
	redacted := []string{"REDACTED", "*"}

	t.Run("redaction is absent, not zero", func(t *testing.T) {
		for _, raw := range []string{"REDACTED", "redacted", "*", "", "  ", "n/a", "-5"} {
			v := events.ParseValue(raw, redacted)
			assert.False(t, v.IsPresent(), raw)
		}
	})

	t.Run("zero is present", func(t *testing.T) {
		v := events.ParseValue("0", redacted)
		f, ok := v.Float()
		assert.True(t, ok)
		assert.Zero(t, f)
	})

	t.Run("fixed point", func(t *testing.T) {
		v := events.ParseValue("85,123.45", redacted)
		units, ok := v.Units()
		require.True(t, ok)
		assert.Equal(t, uint64(851234500), units)
		f, _ := v.Float()
		assert.InDelta(t, 85123.45, f, 1e-9)
	})
}

func TestDerive(t *testing.T) {
	e := events.Event{Type: events.Snapshot, Salary: events.Present(99999.99)}
	e.Derive()
	assert.Equal(t, "$75K-$100K", e.Tags[events.SalaryBracket])

	absent := events.Event{Type: events.Snapshot}
	absent.Derive()
	assert.Empty(t, absent.Tags[events.SalaryBracket])
}

func TestBrackets(t *testing.T) {
	assert.Equal(t, "Under $30K", events.BracketOf(0))
	assert.Equal(t, "$30K-$50K", events.BracketOf(30000*10000))
	assert.Equal(t, "$200K+", events.BracketOf(250000*10000))
	assert.Len(t, events.SalaryBrackets(), 8)
}

func TestCatalog(t *testing.T) {
	cats := events.SeparationCategories()
	require.Len(t, cats, 11)
	assert.Equal(t, "SA", cats[0].Code)

	rif, ok := events.LookupCategory("SH")
	require.True(t, ok)
	assert.Equal(t, "RIF", rif.Name)

	_, ok = events.LookupCategory("ZZ")
	assert.False(t, ok)
}

func TestDimensions(t *testing.T) {
	d, ok := events.ParseDimension("Separation_Category")
	require.True(t, ok)
	assert.Equal(t, events.Category, d)
	assert.Equal(t, "separation_category", d.String())

	_, ok = events.ParseDimension("agency")
	assert.False(t, ok)

	var tags events.Tags
	tags[events.State] = "VA"
	assert.True(t, tags.Has(events.State))
	assert.False(t, tags.Has(events.State, events.Grade))
}
