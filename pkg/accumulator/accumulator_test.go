package accumulator_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sep(entity string, month events.Month, cat string, count int64, salary events.Value) events.Event {
	e := events.Event{Type: events.Separation, Entity: entity, Month: month, Count: count, Salary: salary}
	e.Tags[events.Category] = cat
	return e
}

func TestBucketRedaction(t *testing.T) {
	var b accumulator.Bucket
	e1 := sep("XY", 202301, "SC", 3, events.Present(50000))
	e2 := sep("XY", 202301, "SC", 2, events.Absent())
	b.Add(&e1)
	b.Add(&e2)

	assert.Equal(t, int64(5), b.Count)
	assert.Equal(t, int64(3), b.Salary.Weight)
	avg, ok := b.AvgSalary()
	require.True(t, ok)
	assert.Equal(t, 50000.0, avg, "absent values must not pull the average toward zero")

	_, ok = b.AvgService()
	assert.False(t, ok, "no present values means undefined, not zero")
}

func TestStatDoesNotOverflow(t *testing.T) {
	var s accumulator.Stat
	big := uint64(math.MaxUint64 / 2)
	s.Add(big, 4)
	s.Add(big, 4)
	assert.Equal(t, int64(8), s.Weight)
	avg, ok := s.Average()
	require.True(t, ok)
	assert.InEpsilon(t, float64(big)/10000, avg, 1e-12)
}

func TestOrderIndependence(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var evs []events.Event
	for i := range 500 {
		salary := events.Absent()
		if i%3 != 0 {
			salary = events.Present(float64(30000 + rng.IntN(170000)) + 0.37)
		}
		cat := []string{"SC", "SD", "SH"}[i%3]
		evs = append(evs, sep([]string{"XY", "ZZ", ""}[i%3], events.Month(202301+i%6), cat, int64(1+rng.IntN(9)), salary))
	}

	build := func(order []events.Event) *accumulator.Set {
		s := accumulator.MustDefault()
		for i := range order {
			s.Add(&order[i])
		}
		return s
	}

	reference := build(evs)
	for range 5 {
		shuffled := append([]events.Event(nil), evs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := build(shuffled)
		for _, sh := range reference.Shapes() {
			want := reference.Table(sh.Name)
			have := got.Table(sh.Name)
			require.Equal(t, want.Keys(), have.Keys(), sh.Name)
			want.Each(func(k accumulator.Key, b accumulator.Bucket) {
				hb, _ := have.Get(k)
				assert.Equal(t, b, hb, "bucket %v of %s", k, sh.Name)
			})
		}
	}

	t.Run("partition merge equals single pass", func(t *testing.T) {
		a := reference.Fresh()
		b := reference.Fresh()
		for i := range evs {
			if i%2 == 0 {
				a.Add(&evs[i])
			} else {
				b.Add(&evs[i])
			}
		}
		b.Merge(a)
		tbl := reference.Table(accumulator.SepAgencyMonthCat)
		tbl.Each(func(k accumulator.Key, want accumulator.Bucket) {
			have, ok := b.Table(accumulator.SepAgencyMonthCat).Get(k)
			require.True(t, ok)
			assert.Equal(t, want, have)
		})
	})

	t.Run("count never below weight", func(t *testing.T) {
		for _, sh := range reference.Shapes() {
			reference.Table(sh.Name).Each(func(k accumulator.Key, b accumulator.Bucket) {
				assert.GreaterOrEqual(t, b.Count, b.Salary.Weight)
				assert.GreaterOrEqual(t, b.Count, b.Service.Weight)
			})
		}
	})
}

func TestScopingAndSkips(t *testing.T) {
	s := accumulator.MustDefault()

	unresolved := sep("", 202301, "SC", 4, events.Absent())
	s.Add(&unresolved)
	noCategory := sep("XY", 202301, "", 2, events.Absent())
	s.Add(&noCategory)

	global := s.Table(accumulator.SepMonth).Total()
	assert.Equal(t, int64(6), global.Count, "global totals keep every event")

	agency := s.Table(accumulator.SepAgencyMonth).Total()
	assert.Equal(t, int64(2), agency.Count, "unresolved events stay out of entity tables")

	byCat := s.Table(accumulator.SepMonthCategory).Total()
	assert.Equal(t, int64(4), byCat.Count)

	skipped := s.Skipped()
	assert.Equal(t, int64(1), skipped[accumulator.SepAgencyMonth][accumulator.SkipNoEntity])
	assert.Equal(t, int64(1), skipped[accumulator.SepMonthCategory][accumulator.SkipMissingDimension])

	acc := events.Event{Type: events.Accession, Entity: "XY", Month: 202301, Count: 1}
	s.Add(&acc)
	assert.Equal(t, []events.Month{202301}, s.Months(events.Accession))
	assert.Empty(t, s.Months(events.Snapshot))
}

func TestRollup(t *testing.T) {
	s := accumulator.MustDefault()
	for _, e := range []events.Event{
		sep("XY", 202301, "SC", 1, events.Present(100)),
		sep("XY", 202302, "SC", 2, events.Present(200)),
		sep("XY", 202302, "SH", 3, events.Absent()),
		sep("ZZ", 202302, "SC", 4, events.Present(400)),
	} {
		s.Add(&e)
	}

	byAgency := accumulator.Rollup(s.Table(accumulator.SepAgencyMonthCat), func(k accumulator.Key) (string, bool) {
		return k.Entity, true
	})
	require.Len(t, byAgency, 2)
	assert.Equal(t, int64(6), byAgency["XY"].Count)
	avg, _ := byAgency["XY"].AvgSalary()
	assert.InDelta(t, (100.0+400.0)/3, avg, 1e-9)

	quits := accumulator.Rollup(s.Table(accumulator.SepAgencyMonthCat), func(k accumulator.Key) (string, bool) {
		return k.Entity, k.Values[0] == "SC"
	})
	assert.Equal(t, int64(3), quits["XY"].Count)
	assert.Equal(t, int64(4), quits["ZZ"].Count)
}

func TestShapeValidation(t *testing.T) {
	_, err := accumulator.NewSet([]accumulator.Shape{{Name: "x", Type: events.Separation, Dims: []events.Dimension{0, 1, 2, 3}}})
	assert.Error(t, err)

	_, err = accumulator.NewSet([]accumulator.Shape{{Name: "x", Type: events.Separation}, {Name: "x", Type: events.Accession}})
	assert.Error(t, err)

	_, err = accumulator.NewSet([]accumulator.Shape{{Name: "x", Type: "other"}})
	assert.Error(t, err)
}
