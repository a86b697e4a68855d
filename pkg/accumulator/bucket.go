// Package accumulator holds the grouped counts and weighted statistics of
// a run.
//
// Every table is declared by a Shape: the event type it consumes, whether it
// is keyed by entity, and up to three dimensions. Each distinct key owns one
// Bucket. Counts always accumulate; a measure contributes to its numerator
// and weight only when present, so a redacted salary never drags an average
// toward zero. Numerators are exact fixed-point sums, which makes Add and
// Merge order-independent down to the bit.
package accumulator

import (
	"math"
	"math/bits"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Stat is a weighted sum of a measure: sum(value*count) over events where
// the value was present, and the sum of those counts.
type Stat struct {
	hi, lo uint64
	Weight int64
}

// Add folds count occurrences of a fixed-point value into s.
func (s *Stat) Add(units uint64, count int64) {
	if count <= 0 {
		return
	}
	phi, plo := bits.Mul64(units, uint64(count))
	s.addWide(phi, plo)
	s.Weight += count
}

func (s *Stat) addWide(hi, lo uint64) {
	var carry uint64
	s.lo, carry = bits.Add64(s.lo, lo, 0)
	s.hi, _ = bits.Add64(s.hi, hi, carry)
}

// Merge folds other into s.
func (s *Stat) Merge(other Stat) {
	s.addWide(other.hi, other.lo)
	s.Weight += other.Weight
}

// Sum returns the numerator in measure units.
func (s Stat) Sum() float64 {
	return (float64(s.hi)*math.Exp2(64) + float64(s.lo)) / constants.ValueScale
}

// Average returns Sum/Weight; false when no value was present.
func (s Stat) Average() (float64, bool) {
	if s.Weight == 0 {
		return 0, false
	}
	return s.Sum() / float64(s.Weight), true
}

// Bucket is the accumulated state of one key.
type Bucket struct {
	// Count is the total of event counts, including events whose measures
	// were absent.
	Count   int64
	Salary  Stat
	Service Stat
}

// Add folds an event into b.
func (b *Bucket) Add(e *events.Event) {
	b.Count += e.Count
	if u, ok := e.Salary.Units(); ok {
		b.Salary.Add(u, e.Count)
	}
	if u, ok := e.Service.Units(); ok {
		b.Service.Add(u, e.Count)
	}
}

// Merge folds other into b.
func (b *Bucket) Merge(other Bucket) {
	b.Count += other.Count
	b.Salary.Merge(other.Salary)
	b.Service.Merge(other.Service)
}

// AvgSalary returns the weighted average salary.
func (b Bucket) AvgSalary() (float64, bool) {
	return b.Salary.Average()
}

// AvgService returns the weighted average length of service.
func (b Bucket) AvgService() (float64, bool) {
	return b.Service.Average()
}
