package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fedtrack/pkg/artifacts"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/projection"
)

func encoded(t *testing.T, v any) string {
	t.Helper()
	data, err := artifacts.Encode(v, true)
	require.NoError(t, err)
	return string(data)
}

func TestCSVExports(t *testing.T) {
	f := newFixture()
	f.emp("AA", 202512, "0610", "MEDICAL", "VA", 3, events.Present(100000))
	f.emp("BB", 202512, "9999", "", "VA", 1, events.Absent())
	f.sep("AA", 202310, "SC", 3, events.Absent())
	f.sep("AA", 202310, "SH", 1, events.Absent())

	arts := f.project(t)

	assert.Equal(t, "code,name,employees,avg_salary\n"+
		"AA,Agency Aa,3,100000\n"+
		"BB,Agency Bb,1,\n",
		encoded(t, arts["csv/agencies.csv"]))

	assert.Equal(t, "code,name,family,employees,avg_salary\n"+
		"0610,Occupation 0610,MEDICAL,3,100000\n"+
		"9999,Occupation 9999,,1,\n",
		encoded(t, arts["csv/occupations.csv"]))

	seps := arts["csv/separations.csv"].(projection.Table)
	assert.Equal(t, []string{"code", "type", "count", "percentage"}, seps.Header)
	require.Len(t, seps.Rows, len(events.SeparationCategories()))
	assert.Equal(t, []string{"SC", "Quit", "3", "75.0"}, seps.Rows[0])
	assert.Equal(t, []string{"SH", "RIF", "1", "25.0"}, seps.Rows[1])
	assert.Equal(t, "0.0", seps.Rows[2][3], "categories without separations are listed")
}

func TestCSVQuotesFields(t *testing.T) {
	table := projection.Table{
		Header: []string{"code", "name"},
		Rows:   [][]string{{"XY", `Agency "X", Y`}},
	}
	assert.Equal(t, "code,name\nXY,\"Agency \"\"X\"\", Y\"\n", encoded(t, table))
}
