package projection

import (
	"cmp"
	"math"
	"regexp"
	"slices"

	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Rate returns num/den, or false when den is zero.
func Rate(num, den int64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

// Ranked is an item with a measure and a tie-breaking code.
type Ranked interface {
	RankMeasure() float64
	RankCode() string
}

// TopN sorts items by measure descending, ties by code ascending, and keeps
// the first n. n <= 0 keeps all.
func TopN[T Ranked](items []T, n int) []T {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Or(cmp.Compare(b.RankMeasure(), a.RankMeasure()), cmp.Compare(a.RankCode(), b.RankCode()))
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// MonthlyTrend returns the total count per month of a table in month
// order. Only months with at least one bucket appear.
func MonthlyTrend(t *accumulator.Table, keep func(accumulator.Key) bool) []MonthCount {
	byMonth := accumulator.Rollup(t, func(k accumulator.Key) (events.Month, bool) {
		return k.Month, keep == nil || keep(k)
	})
	months := make([]events.Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	slices.Sort(months)
	out := make([]MonthCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthCount{Month: m.String(), Count: byMonth[m].Count})
	}
	return out
}

// NetChange is accessions minus separations over finalized totals.
func NetChange(accessions, separations int64) int64 {
	return accessions - separations
}

// dollars rounds a weighted average salary to whole dollars; nil when
// undefined.
func dollars(b accumulator.Bucket) *int64 {
	avg, ok := b.AvgSalary()
	if !ok {
		return nil
	}
	v := int64(math.Round(avg))
	return &v
}

// years rounds a weighted average length of service to one decimal.
func years(b accumulator.Bucket) *float64 {
	avg, ok := b.AvgService()
	if !ok {
		return nil
	}
	v := math.Round(avg*10) / 10
	return &v
}

func percent(num, den int64) *float64 {
	r, ok := Rate(num, den)
	if !ok {
		return nil
	}
	v := math.Round(r*1000) / 10
	return &v
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// fileCode turns a code into a file name component.
func fileCode(code string) string {
	return unsafeName.ReplaceAllString(code, "_")
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
