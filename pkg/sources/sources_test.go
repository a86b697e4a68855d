package sources_test

import (
	"context"
	"strings"
	"testing"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layout(t *testing.T, name string) sources.Layout {
	t.Helper()
	l, ok := sources.DefaultRegistry().Get(name)
	require.True(t, ok, name)
	return l
}

func collect(t *testing.T, a sources.Adapter, name, body string) ([]events.Event, sources.Stats, error) {
	t.Helper()
	var out []events.Event
	stats, err := a.Adapt(context.Background(), name, strings.NewReader(body), func(e events.Event) error {
		out = append(out, e)
		return nil
	})
	return out, stats, err
}

func TestLegacyAdapter(t *testing.T) {
	a, err := sources.NewAdapter(layout(t, sources.LegacySeparations), sources.WithGeneration("legacy", 1))
	require.NoError(t, err)

	body := "EFDATE,AGYSUB,SEP,COUNT,SALARY,LOS\n" +
		"202309,xy01,SC,3,85000,10.5\n" +
		"202309,XY01,sh,2,REDACTED,*\n" +
		"202309,XY02,SD,notanumber,1,1\n" +
		"2023xx,XY02,SD,1,1,1\n"

	got, stats, err := collect(t, a, "SEPDATA.TXT", body)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, events.Separation, first.Type)
	assert.Equal(t, events.Month(202309), first.Month)
	assert.Equal(t, "XY01", first.SubEntity)
	assert.Empty(t, first.Entity)
	assert.Equal(t, "SC", first.Tags[events.Category])
	assert.Equal(t, int64(3), first.Count)
	assert.Equal(t, "legacy", first.Generation)
	assert.Equal(t, 1, first.Rank)
	sal, ok := first.Salary.Float()
	assert.True(t, ok)
	assert.Equal(t, 85000.0, sal)

	second := got[1]
	assert.Equal(t, "SH", second.Tags[events.Category])
	assert.False(t, second.Salary.IsPresent())
	assert.False(t, second.Service.IsPresent())

	assert.Equal(t, int64(4), stats.Rows)
	assert.Equal(t, int64(2), stats.Emitted)
	assert.Equal(t, int64(1), stats.RedactedSalary)
	assert.Equal(t, int64(1), stats.RedactedService)
	assert.Equal(t, int64(1), stats.Malformed[sources.ReasonBadCount])
	assert.Equal(t, int64(1), stats.Malformed[sources.ReasonBadMonth])
	assert.Equal(t, int64(2), stats.MalformedTotal())
}

func TestMonthlyAdapterTakesMonthFromFileName(t *testing.T) {
	a, err := sources.NewAdapter(layout(t, sources.MonthlySeparations), sources.WithGeneration("monthly", 2))
	require.NoError(t, err)

	body := "separation_category_code|count|agency_code|agency|occupational_series|age_bracket\n" +
		"SC|4|xyz|DEPARTMENT OF EXAMPLES|GENERAL ATTORNEY|REDACTED\n"

	got, stats, err := collect(t, a, "/data/monthly/separations_202310.txt", body)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.Month(202310), got[0].Month)
	assert.Equal(t, "XY", got[0].Entity, "entity ids are cut to the declared width")
	assert.Equal(t, "DEPARTMENT OF EXAMPLES", got[0].EntityName)
	assert.Equal(t, "GENERAL ATTORNEY", got[0].Tags[events.Occupation])
	assert.Empty(t, got[0].Tags[events.AgeBracket])
	assert.Equal(t, int64(1), stats.RedactedTags)

	_, _, err = collect(t, a, "separations.txt", body)
	assert.Error(t, err)
}

func TestSchemaMismatchBeforeAnyRow(t *testing.T) {
	a, err := sources.NewAdapter(layout(t, sources.LegacySeparations), sources.WithGeneration("legacy", 1))
	require.NoError(t, err)

	emitted := 0
	_, err = a.Adapt(context.Background(), "bad.csv", strings.NewReader("EFDATE,AGYSUB,COUNT\n202301,XY01,5\n"), func(events.Event) error {
		emitted++
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaMismatch(err))
	assert.Zero(t, emitted)

	var sm *errors.SchemaMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "SEP", sm.Field)

	t.Run("empty file", func(t *testing.T) {
		_, _, err := collect(t, a, "empty.csv", "")
		assert.True(t, errors.IsSchemaMismatch(err))
	})
}

func TestJSONLinesAdapter(t *testing.T) {
	a, err := sources.NewAdapter(layout(t, sources.JSONLSeparations), sources.WithGeneration("jsonl", 3))
	require.NoError(t, err)

	body := `{"personnel_action_effective_date_yyyymm":"202512","agency_code":"XY","agency":"EXAMPLE & CO","separation_category_code":"SC","count":2}
` + "\n" + `{"personnel_action_effective_date_yyyymm":202601,"agency_code":"xy","agency":"EXAMPLE","separation_category_code":"SH","count":"7"}
{not json}
`
	got, stats, err := collect(t, a, "separations.jsonl", body)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "EXAMPLE & CO", got[0].EntityName)
	assert.Equal(t, events.Month(202601), got[1].Month)
	assert.Equal(t, "XY", got[1].Entity)
	assert.Equal(t, int64(7), got[1].Count)
	assert.Equal(t, int64(1), stats.Malformed["unparsable"])

	t.Run("missing key in first record", func(t *testing.T) {
		_, _, err := collect(t, a, "x.jsonl", `{"agency_code":"XY","count":1}`+"\n")
		assert.True(t, errors.IsSchemaMismatch(err))
	})
}

func TestSnapshotAdapter(t *testing.T) {
	l := layout(t, sources.EmploymentSnapshot)

	_, err := sources.NewAdapter(l, sources.WithGeneration("snapshot", 3))
	assert.Error(t, err, "snapshot layouts need a declared month")

	a, err := sources.NewAdapter(l, sources.WithGeneration("snapshot", 3), sources.WithFixedMonth(202512))
	require.NoError(t, err)

	body := "agency_code|agency|occupational_series_code|occupational_series|occupational_group|duty_station_state_abbreviation|duty_station_state|education_level|grade|age_bracket|annualized_adjusted_basic_pay|count\n" +
		"XY|EXAMPLE|0905|GENERAL ATTORNEY|LEGAL|va|VIRGINIA|MASTERS|15|35-39|150000.50|2\n" +
		"XY|EXAMPLE|0905|GENERAL ATTORNEY|LEGAL|REDACTED|REDACTED|MASTERS|*|35-39|REDACTED|1\n"
	got, _, err := collect(t, a, "employment.txt", body)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, events.Month(202512), got[0].Month)
	assert.Equal(t, "VA", got[0].Tags[events.State])
	assert.Equal(t, "VIRGINIA", got[0].Labels[events.State])
	assert.Equal(t, "$150K-$200K", got[0].Tags[events.SalaryBracket])
	assert.Equal(t, "LEGAL", got[0].Tags[events.OccupationFamily])

	assert.Empty(t, got[1].Tags[events.State])
	assert.Empty(t, got[1].Tags[events.Grade])
	assert.Empty(t, got[1].Tags[events.SalaryBracket])
	assert.False(t, got[1].Salary.IsPresent())
}

func TestCancellation(t *testing.T) {
	a, err := sources.NewAdapter(layout(t, sources.LegacyAccessions), sources.WithGeneration("legacy", 1))
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString("EFDATE,AGYSUB,COUNT\n")
	for range 5000 {
		sb.WriteString("202301,XY01,1\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Adapt(ctx, "acc.csv", strings.NewReader(sb.String()), func(events.Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayoutValidate(t *testing.T) {
	for _, l := range sources.BuiltinLayouts() {
		assert.NoError(t, l.Validate(), l.Name)
	}

	bad := sources.Layout{Name: "x", EventType: events.Separation, Format: sources.Delimited, CountField: "c"}
	assert.Error(t, bad.Validate(), "no entity field")

	bad = sources.Layout{Name: "x", EventType: "hiring", Format: sources.Delimited, EntityField: "a", CountField: "c"}
	assert.Error(t, bad.Validate())

	bad = sources.Layout{Name: "x", EventType: events.Accession, Format: sources.JSONLines, EntityField: "a", CountField: "c", MonthPattern: `\d{6}`}
	assert.Error(t, bad.Validate(), "pattern without capture group")

	bad = sources.Layout{Name: "x", EventType: events.Accession, Format: sources.JSONLines, EntityField: "a", CountField: "c", Dimensions: map[string]string{"color": "c"}}
	assert.Error(t, bad.Validate())
}

func TestRegistry(t *testing.T) {
	r := sources.DefaultRegistry()
	assert.Contains(t, r.Names(), sources.EmploymentSnapshot)
	r.Set(sources.Layout{Name: "custom"})
	_, ok := r.Get("custom")
	assert.True(t, ok)
}
