package timeline_test

import (
	"testing"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separationPlan(t *testing.T) *timeline.Plan {
	t.Helper()
	p, err := timeline.NewPlan([]timeline.Window{
		{Generation: "monthly", Rank: 2, Type: events.Separation, From: 202310, Through: 202511},
		{Generation: "legacy", Rank: 1, Type: events.Separation, Through: 202309},
		{Generation: "jsonl", Rank: 3, Type: events.Separation, From: 202512},
	})
	require.NoError(t, err)
	return p
}

func TestBoundaryOwnership(t *testing.T) {
	p := separationPlan(t)

	tests := []struct {
		gen   string
		month events.Month
		want  timeline.Outcome
		owner string
	}{
		{"legacy", 202309, timeline.Accepted, ""},
		{"legacy", 202310, timeline.OwnedByOther, "monthly"},
		{"monthly", 202309, timeline.OwnedByOther, "legacy"},
		{"monthly", 202310, timeline.Accepted, ""},
		{"monthly", 202512, timeline.OwnedByOther, "jsonl"},
		{"jsonl", 209912, timeline.Accepted, ""},
		{"legacy", 199001, timeline.Accepted, ""},
		{"snapshot", 202512, timeline.Undeclared, ""},
	}
	for _, tt := range tests {
		t.Run(tt.gen+"/"+tt.month.String(), func(t *testing.T) {
			d := p.Route(tt.gen, events.Separation, tt.month)
			assert.Equal(t, tt.want, d.Outcome)
			assert.Equal(t, tt.owner, d.Owner)
		})
	}

	assert.Equal(t, timeline.Undeclared, p.Route("legacy", events.Accession, 202301).Outcome)
}

func TestOutsideEveryWindow(t *testing.T) {
	p, err := timeline.NewPlan([]timeline.Window{
		{Generation: "a", Rank: 1, Type: events.Accession, From: 202001, Through: 202012},
		{Generation: "b", Rank: 2, Type: events.Accession, From: 202101, Through: 202112},
	})
	require.NoError(t, err)
	assert.Equal(t, timeline.OutsideWindows, p.Route("a", events.Accession, 201912).Outcome)
	assert.Equal(t, timeline.OutsideWindows, p.Route("b", events.Accession, 202201).Outcome)
}

func TestPlanValidation(t *testing.T) {
	t.Run("overlap", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "legacy", Rank: 1, Type: events.Separation, Through: 202310},
			{Generation: "monthly", Rank: 2, Type: events.Separation, From: 202310},
		})
		require.Error(t, err)
		assert.True(t, errors.IsOverlapConflict(err))
	})

	t.Run("gap", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "legacy", Rank: 1, Type: events.Separation, Through: 202309},
			{Generation: "monthly", Rank: 2, Type: events.Separation, From: 202311},
		})
		var cfg *errors.ConfigError
		require.ErrorAs(t, err, &cfg)
		assert.Contains(t, err.Error(), "202310..202310")
	})

	t.Run("gap across year end", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "a", Rank: 1, Type: events.Accession, Through: 202312},
			{Generation: "b", Rank: 2, Type: events.Accession, From: 202401},
		})
		assert.NoError(t, err)
	})

	t.Run("open end on older window", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "a", Rank: 1, Type: events.Accession},
			{Generation: "b", Rank: 2, Type: events.Accession, From: 202401},
		})
		assert.Error(t, err)
	})

	t.Run("open start on newer window", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "a", Rank: 1, Type: events.Accession, Through: 202312},
			{Generation: "b", Rank: 2, Type: events.Accession},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate rank", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "a", Rank: 1, Type: events.Accession, Through: 202312},
			{Generation: "b", Rank: 1, Type: events.Accession, From: 202401},
		})
		assert.Error(t, err)
	})

	t.Run("inverted window", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "a", Rank: 1, Type: events.Accession, From: 202401, Through: 202312},
		})
		assert.Error(t, err)
	})

	t.Run("types validate independently", func(t *testing.T) {
		_, err := timeline.NewPlan([]timeline.Window{
			{Generation: "legacy", Rank: 1, Type: events.Separation, Through: 202309},
			{Generation: "snapshot", Rank: 4, Type: events.Snapshot, From: 202512, Through: 202512},
		})
		assert.NoError(t, err)
	})
}

func TestLedger(t *testing.T) {
	a := timeline.NewLedger()
	require.NoError(t, a.Claim(events.Separation, "XY", 202309, "legacy"))
	require.NoError(t, a.Claim(events.Separation, "XY", 202309, "legacy"))
	require.NoError(t, a.Claim(events.Accession, "XY", 202309, "monthly"))

	b := timeline.NewLedger()
	require.NoError(t, b.Claim(events.Separation, "XY", 202310, "monthly"))
	require.NoError(t, a.Merge(b))
	assert.Equal(t, 3, a.Len())

	c := timeline.NewLedger()
	require.NoError(t, c.Claim(events.Separation, "XY", 202309, "monthly"))
	err := a.Merge(c)
	require.Error(t, err)
	var oc *errors.OverlapConflictError
	require.ErrorAs(t, err, &oc)
	assert.Equal(t, []string{"legacy", "monthly"}, oc.Generations)
	assert.Equal(t, 202309, oc.Month)
}

func TestCoverageAndRealizedWindows(t *testing.T) {
	p := separationPlan(t)

	c := timeline.NewCoverage()
	c.Observe("jsonl", events.Separation, 202601)
	other := timeline.NewCoverage()
	other.Observe("jsonl", events.Separation, 202512)
	other.Observe("legacy", events.Separation, 201910)
	c.Merge(other)

	span, ok := c.Span("jsonl", events.Separation)
	require.True(t, ok)
	assert.Equal(t, events.Month(202512), span.First)
	assert.Equal(t, events.Month(202601), span.Last)
	assert.Equal(t, int64(2), span.Events)

	realized := p.Realized(events.Separation, c)
	require.Len(t, realized, 3)
	assert.Equal(t, events.Month(202601), realized[2].Through)
	assert.Equal(t, events.Month(202309), realized[0].Through)

	assert.Equal(t, events.Month(202601), c.DataThrough(events.Separation))
	assert.Len(t, c.Spans(), 2)
	assert.Equal(t, "legacy", c.Spans()[0].Generation)
}

func TestAxis(t *testing.T) {
	got := timeline.Axis([]events.Month{202310, 202301}, []events.Month{202310, 202305})
	assert.Equal(t, []events.Month{202301, 202305, 202310}, got)
}
