package timeline

import (
	"cmp"
	"slices"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

type cell struct {
	t      events.Type
	entity string
	month  events.Month
}

// Ledger records which generation contributed each (type, entity, month)
// cell. A cell claimed by two generations is double counting and fails the
// run.
//
// A Plan built by NewPlan already gives every event type disjoint windows,
// so Route never accepts one month from two generations and a conflict is
// not reachable through the reconciler. The ledger is a backstop that
// checks the accepted cells themselves, independent of how they were
// routed.
type Ledger struct {
	claims map[cell]string
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{claims: make(map[cell]string)}
}

// Claim records generation as the contributor of a cell. Claiming a cell
// owned by another generation returns an OverlapConflictError.
func (l *Ledger) Claim(t events.Type, entity string, m events.Month, generation string) error {
	c := cell{t, entity, m}
	if owner, ok := l.claims[c]; ok {
		if owner != generation {
			return conflict(c, owner, generation)
		}
		return nil
	}
	l.claims[c] = generation
	return nil
}

// Merge folds other into l, failing on the first conflicting cell.
func (l *Ledger) Merge(other *Ledger) error {
	cells := make([]cell, 0, len(other.claims))
	for c := range other.claims {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b cell) int {
		return cmp.Or(cmp.Compare(a.t, b.t), cmp.Compare(a.entity, b.entity), cmp.Compare(a.month, b.month))
	})
	for _, c := range cells {
		if err := l.Claim(c.t, c.entity, c.month, other.claims[c]); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of claimed cells.
func (l *Ledger) Len() int { return len(l.claims) }

func conflict(c cell, a, b string) error {
	gens := []string{a, b}
	slices.Sort(gens)
	return errors.NewOverlapConflictError(string(c.t), c.entity, int(c.month), gens...)
}
