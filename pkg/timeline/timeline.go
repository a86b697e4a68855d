// Package timeline decides which source generation owns which months.
//
// Each generation declares, per event type, a window [From, Through] of
// months. Windows of one event type must tile the calendar without gaps or
// overlaps: the older generation owns every month up to and including its
// Through, the newer one owns strictly after. Only the oldest window may be
// open at the start and only the newest at the end; the newest window's
// realized upper bound is the last month it actually delivered.
package timeline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Window is the span of months a generation owns for one event type. A
// zero bound is open.
type Window struct {
	Generation string       `json:"generation" yaml:"generation"`
	Rank       int          `json:"rank" yaml:"rank"`
	Type       events.Type  `json:"type" yaml:"type"`
	From       events.Month `json:"from,omitempty" yaml:"from,omitempty"`
	Through    events.Month `json:"through,omitempty" yaml:"through,omitempty"`
}

// Contains reports whether m falls inside w.
func (w Window) Contains(m events.Month) bool {
	return (w.From == 0 || m >= w.From) && (w.Through == 0 || m <= w.Through)
}

// String renders the window as "from..through".
func (w Window) String() string {
	bound := func(m events.Month) string {
		if m == 0 {
			return ""
		}
		return m.String()
	}
	return fmt.Sprintf("%s[%s..%s]", w.Generation, bound(w.From), bound(w.Through))
}

// Plan holds validated windows grouped by event type, oldest first.
type Plan struct {
	byType map[events.Type][]Window
}

// NewPlan validates windows and builds a plan.
func NewPlan(windows []Window) (*Plan, error) {
	p := &Plan{byType: make(map[events.Type][]Window)}
	for _, w := range windows {
		if !w.Type.Valid() {
			return nil, errors.NewValidationError("type", w.Type, "window of "+w.Generation+" has unknown event type")
		}
		if w.From != 0 && !w.From.Valid() || w.Through != 0 && !w.Through.Valid() {
			return nil, errors.NewValidationError("window", w.String(), "invalid month bound")
		}
		if w.From != 0 && w.Through != 0 && w.From > w.Through {
			return nil, errors.NewConfigError("timeline", fmt.Sprintf("window %s ends before it starts", w), nil)
		}
		p.byType[w.Type] = append(p.byType[w.Type], w)
	}
	for t, ws := range p.byType {
		slices.SortStableFunc(ws, func(a, b Window) int { return cmp.Compare(a.Rank, b.Rank) })
		if err := validate(t, ws); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func validate(t events.Type, ws []Window) error {
	for i, w := range ws {
		if i > 0 && ws[i-1].Rank == w.Rank {
			return errors.NewConfigError("timeline", fmt.Sprintf("%s: generations %s and %s share rank %d", t, ws[i-1].Generation, w.Generation, w.Rank), nil)
		}
		if i > 0 && ws[i-1].Generation == w.Generation {
			return errors.NewConfigError("timeline", fmt.Sprintf("%s: generation %s declared twice", t, w.Generation), nil)
		}
		if i > 0 && w.From == 0 {
			return errors.NewConfigError("timeline", fmt.Sprintf("%s: only the oldest window may be open at the start, %s is not oldest", t, w), nil)
		}
		if i < len(ws)-1 && w.Through == 0 {
			return errors.NewConfigError("timeline", fmt.Sprintf("%s: only the newest window may be open at the end, %s is not newest", t, w), nil)
		}
		if i == 0 {
			continue
		}
		older := ws[i-1]
		if w.From <= older.Through {
			return errors.NewOverlapConflictError(string(t), "", 0, older.Generation, w.Generation)
		}
		if w.From != older.Through.Next() {
			return errors.NewConfigError("timeline",
				fmt.Sprintf("%s: gap between %s and %s (months %s..%s owned by nobody)", t, older, w, older.Through.Next(), w.From.Prev()), nil)
		}
	}
	return nil
}

// Windows returns the windows of t, oldest first.
func (p *Plan) Windows(t events.Type) []Window {
	return slices.Clone(p.byType[t])
}

// All returns every window ordered by event type then rank.
func (p *Plan) All() []Window {
	var out []Window
	for _, t := range events.Types() {
		out = append(out, p.byType[t]...)
	}
	return out
}

// Window returns the window generation declared for t.
func (p *Plan) Window(generation string, t events.Type) (Window, bool) {
	for _, w := range p.byType[t] {
		if w.Generation == generation {
			return w, true
		}
	}
	return Window{}, false
}

// Outcome is the result of routing one event.
type Outcome string

// Routing outcomes. Every rejection is a counted reason, never a silent drop.
const (
	Accepted       Outcome = "accepted"
	OutsideWindows Outcome = "outside_windows"
	OwnedByOther   Outcome = "owned_by_other"
	Undeclared     Outcome = "undeclared"
)

// Decision explains a routing outcome.
type Decision struct {
	Outcome Outcome
	// Owner is the generation that owns the month when Outcome is
	// OwnedByOther.
	Owner string
}

// Route decides whether generation may contribute an event of type t in
// month m.
func (p *Plan) Route(generation string, t events.Type, m events.Month) Decision {
	own, ok := p.Window(generation, t)
	if !ok {
		return Decision{Outcome: Undeclared}
	}
	if own.Contains(m) {
		return Decision{Outcome: Accepted}
	}
	for _, w := range p.byType[t] {
		if w.Contains(m) {
			return Decision{Outcome: OwnedByOther, Owner: w.Generation}
		}
	}
	return Decision{Outcome: OutsideWindows}
}
