package projection_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/projection"
)

func TestImpactComparesSameMonthsOfPriorYear(t *testing.T) {
	f := newFixture()
	f.sep("AA", 202401, "SC", 10, events.Absent())
	f.sep("AA", 202403, "SH", 4, events.Absent())
	// after March, so outside the prior-year comparison
	f.sep("AA", 202409, "SC", 100, events.Absent())
	f.sep("AA", 202501, "SH", 6, events.Absent())
	f.sep("BB", 202503, "SC", 9, events.Absent())
	f.acc("AA", 202402, 5)
	f.acc("AA", 202501, 2)
	f.acc("BB", 202504, 7)

	doc := f.project(t)["doge-impact.json"].(projection.Impact)
	assert.Equal(t, 2025, doc.Year)
	assert.Equal(t, "Jan-Mar (2025 vs 2024)", doc.ComparisonPeriod)
	assert.Equal(t, "2026-01-02T03:04:05Z", doc.GeneratedAt)

	assert.Equal(t, int64(15), doc.Separations)
	assert.Equal(t, int64(14), doc.SeparationsPriorYear)
	assert.Equal(t, int64(1), doc.SeparationChange)
	require.NotNil(t, doc.SeparationChangePct)
	assert.Equal(t, 7.1, *doc.SeparationChangePct)

	assert.Equal(t, int64(2), doc.Accessions, "April accessions are past the comparison months")
	assert.Equal(t, int64(5), doc.AccessionsPriorYear)
	assert.Equal(t, int64(-3), doc.AccessionChange)
	require.NotNil(t, doc.AccessionChangePct)
	assert.Equal(t, -60.0, *doc.AccessionChangePct)

	assert.Equal(t, []projection.TrendMonth{
		{Month: "202501", Separations: 6, Accessions: 2, Net: -4},
		{Month: "202503", Separations: 9, Accessions: 0, Net: -9},
		{Month: "202504", Separations: 0, Accessions: 7, Net: 7},
	}, doc.MonthlyBreakdown)
	assert.Equal(t, int64(-6), doc.NetChangeSinceJan)

	require.Len(t, doc.TopAgenciesByLoss, 2)
	assert.Equal(t, projection.AgencyNet{Code: "AA", Name: "Agency Aa", Separations: 6, Accessions: 2, Net: -4}, doc.TopAgenciesByLoss[0])
	assert.Equal(t, "BB", doc.TopAgenciesByLoss[1].Code)
	assert.Equal(t, int64(-2), doc.TopAgenciesByLoss[1].Net)

	assert.Equal(t, []projection.RifAgency{{Code: "AA", Name: "Agency Aa", RifCount: 6}}, doc.RifByAgency)
	assert.Equal(t, map[string]int64{"2024": 4, "2025": 6}, doc.RifByYear)
}

func TestImpactTopLossIsCapped(t *testing.T) {
	f := newFixture()
	for i, code := range []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "B1", "B2", "B3"} {
		f.sep(code, 202502, "SC", int64(i+1), events.Absent())
	}

	doc := f.project(t)["doge-impact.json"].(projection.Impact)
	require.Len(t, doc.TopAgenciesByLoss, 10)
	assert.Equal(t, "B3", doc.TopAgenciesByLoss[0].Code, "largest loss first")
	assert.Nil(t, doc.SeparationChangePct, "no prior-year separations")
	assert.Empty(t, doc.RifByAgency)
}

func TestImpactWithoutSeparations(t *testing.T) {
	f := newFixture()
	f.acc("AA", 202501, 3)

	doc := f.project(t)["doge-impact.json"].(projection.Impact)
	assert.Zero(t, doc.Year)
	assert.Empty(t, doc.MonthlyBreakdown)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"generatedAt": "2026-01-02T03:04:05Z",
		"separations": 0, "separationsPriorYear": 0, "separationChange": 0,
		"accessions": 0, "accessionsPriorYear": 0, "accessionChange": 0,
		"netChangeSinceJan": 0,
		"monthlyBreakdown": [], "topAgenciesByNetLoss": [], "rifByAgency": [], "rifByYear": {}
	}`, string(data))
}

func TestStateSalaryAgainstNational(t *testing.T) {
	f := newFixture()
	f.emp("AA", 202512, "0610", "MEDICAL", "VA", 100, events.Present(100000))
	f.emp("BB", 202512, "0610", "MEDICAL", "MD", 100, events.Present(80000))
	f.emp("CC", 202512, "0610", "MEDICAL", "NDR", 100, events.Present(10000))
	f.emp("DD", 202512, "0610", "MEDICAL", "GU", 5, events.Absent())

	arts := f.project(t)

	va := arts["state-detail/VA.json"].(projection.StateDetail)
	require.NotNil(t, va.NationalAvgSalary)
	assert.Equal(t, int64(90000), *va.NationalAvgSalary, "unreported state left out")
	require.NotNil(t, va.SalaryVsNational)
	assert.Equal(t, 11.1, *va.SalaryVsNational)

	md := arts["state-detail/MD.json"].(projection.StateDetail)
	require.NotNil(t, md.SalaryVsNational)
	assert.Equal(t, -11.1, *md.SalaryVsNational)

	ndr := arts["state-detail/NDR.json"].(projection.StateDetail)
	assert.Equal(t, int64(90000), *ndr.NationalAvgSalary)
	assert.Equal(t, -88.9, *ndr.SalaryVsNational)

	gu := arts["state-detail/GU.json"].(projection.StateDetail)
	assert.Nil(t, gu.SalaryVsNational, "no salaries reported for the state")
	assert.Equal(t, int64(90000), *gu.NationalAvgSalary)
}
