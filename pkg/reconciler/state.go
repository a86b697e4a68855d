package reconciler

import (
	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/authority"
	"github.com/agentstation/fedtrack/pkg/crosswalk"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// State is everything one run accumulates. A run owns exactly one State;
// nothing in it is shared with other runs.
type State struct {
	Set        *accumulator.Set
	Names      *authority.Book
	Ledger     *timeline.Ledger
	Coverage   *timeline.Coverage
	Unresolved *crosswalk.Tally
	Files      []FileReport
}

// NewState creates an empty state with tables for shapes.
func NewState(shapes []accumulator.Shape) (*State, error) {
	set, err := accumulator.NewSet(shapes)
	if err != nil {
		return nil, err
	}
	return &State{
		Set:        set,
		Names:      authority.NewBook(),
		Ledger:     timeline.NewLedger(),
		Coverage:   timeline.NewCoverage(),
		Unresolved: crosswalk.NewTally(),
	}, nil
}

// fresh returns an empty state with the same table shapes.
func (s *State) fresh() *State {
	return &State{
		Set:        s.Set.Fresh(),
		Names:      authority.NewBook(),
		Ledger:     timeline.NewLedger(),
		Coverage:   timeline.NewCoverage(),
		Unresolved: crosswalk.NewTally(),
	}
}

// merge folds a partial state into s. A ledger conflict is returned and
// leaves s partly merged; the run must be abandoned.
func (s *State) merge(p *State) error {
	if err := s.Ledger.Merge(p.Ledger); err != nil {
		return err
	}
	s.Set.Merge(p.Set)
	s.Names.Merge(p.Names)
	s.Coverage.Merge(p.Coverage)
	s.Unresolved.Merge(p.Unresolved)
	s.Files = append(s.Files, p.Files...)
	return nil
}
