package timeline

import (
	"cmp"
	"slices"

	"github.com/agentstation/fedtrack/pkg/events"
)

// Span is the range of months a generation actually delivered for a type.
type Span struct {
	Generation string       `json:"generation"`
	Type       events.Type  `json:"type"`
	First      events.Month `json:"first"`
	Last       events.Month `json:"last"`
	Events     int64        `json:"events"`
}

type spanKey struct {
	generation string
	t          events.Type
}

// Coverage tracks accepted months per generation and event type.
type Coverage struct {
	spans map[spanKey]*Span
}

// NewCoverage creates empty coverage.
func NewCoverage() *Coverage {
	return &Coverage{spans: make(map[spanKey]*Span)}
}

// Observe records one accepted event.
func (c *Coverage) Observe(generation string, t events.Type, m events.Month) {
	k := spanKey{generation, t}
	s, ok := c.spans[k]
	if !ok {
		c.spans[k] = &Span{Generation: generation, Type: t, First: m, Last: m, Events: 1}
		return
	}
	s.First = min(s.First, m)
	s.Last = max(s.Last, m)
	s.Events++
}

// Merge folds other into c.
func (c *Coverage) Merge(other *Coverage) {
	for k, o := range other.spans {
		s, ok := c.spans[k]
		if !ok {
			cp := *o
			c.spans[k] = &cp
			continue
		}
		s.First = min(s.First, o.First)
		s.Last = max(s.Last, o.Last)
		s.Events += o.Events
	}
}

// Span returns the realized span of generation for t.
func (c *Coverage) Span(generation string, t events.Type) (Span, bool) {
	s, ok := c.spans[spanKey{generation, t}]
	if !ok {
		return Span{}, false
	}
	return *s, true
}

// Spans returns every span ordered by type then first month.
func (c *Coverage) Spans() []Span {
	out := make([]Span, 0, len(c.spans))
	for _, s := range c.spans {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Span) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.First, b.First), cmp.Compare(a.Generation, b.Generation))
	})
	return out
}

// Realized returns the windows of t with open upper bounds replaced by the
// last month actually delivered.
func (p *Plan) Realized(t events.Type, c *Coverage) []Window {
	ws := p.Windows(t)
	for i, w := range ws {
		if w.Through != 0 {
			continue
		}
		if s, ok := c.Span(w.Generation, t); ok {
			ws[i].Through = s.Last
		}
	}
	return ws
}

// DataThrough returns the last month delivered for t by any generation.
func (c *Coverage) DataThrough(t events.Type) events.Month {
	var last events.Month
	for k, s := range c.spans {
		if k.t == t {
			last = max(last, s.Last)
		}
	}
	return last
}

// Axis merges month lists into one sorted list without duplicates. Months
// nobody delivered are absent; the axis is sparse.
func Axis(lists ...[]events.Month) []events.Month {
	var out []events.Month
	for _, l := range lists {
		out = append(out, l...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
