package reconciler

import (
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/sources"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// FileReport is what one source file contributed.
type FileReport struct {
	Path       string `json:"path"`
	Generation string `json:"generation"`
	Layout     string `json:"layout"`
	sources.Stats
	Accepted int64            `json:"accepted"`
	Rejected map[string]int64 `json:"rejected,omitempty"`
}

// GenerationReport sums the file reports of one generation.
type GenerationReport struct {
	Generation      string           `json:"generation"`
	Rank            int              `json:"rank"`
	Files           int              `json:"files"`
	Rows            int64            `json:"rows"`
	Emitted         int64            `json:"emitted"`
	Accepted        int64            `json:"accepted"`
	Rejected        map[string]int64 `json:"rejected,omitempty"`
	Malformed       map[string]int64 `json:"malformed,omitempty"`
	RedactedSalary  int64            `json:"redactedSalary"`
	RedactedService int64            `json:"redactedService"`
	RedactedTags    int64            `json:"redactedTags"`
}

// WindowReport compares a declared window with what was delivered.
type WindowReport struct {
	Generation    string       `json:"generation"`
	Type          events.Type  `json:"type"`
	Declared      string       `json:"declared"`
	RealizedFirst events.Month `json:"realizedFirst,omitempty"`
	RealizedLast  events.Month `json:"realizedLast,omitempty"`
	Events        int64        `json:"events"`
}

// UnresolvedReport lists sub-entities missing from the crosswalk.
type UnresolvedReport struct {
	Events   int64                            `json:"events"`
	Distinct int                              `json:"distinct"`
	IDs      []errors.UnresolvedEntityWarning `json:"ids"`
}

// Diagnostics is the content of diagnostics.json.
type Diagnostics struct {
	Generations []GenerationReport          `json:"generations"`
	Files       []FileReport                `json:"files"`
	Windows     []WindowReport              `json:"windows"`
	Unresolved  UnresolvedReport            `json:"unresolved"`
	Skipped     map[string]map[string]int64 `json:"skipped"`
}

// Diagnostics summarizes s against the plan it was routed through.
func (s *State) Diagnostics(plan *timeline.Plan) Diagnostics {
	d := Diagnostics{
		Generations: []GenerationReport{},
		Files:       s.Files,
		Windows:     []WindowReport{},
		Skipped:     s.Set.Skipped(),
	}
	if d.Files == nil {
		d.Files = []FileReport{}
	}

	index := make(map[string]int)
	for _, w := range plan.All() {
		if _, ok := index[w.Generation]; ok {
			continue
		}
		index[w.Generation] = len(d.Generations)
		d.Generations = append(d.Generations, GenerationReport{Generation: w.Generation, Rank: w.Rank})
	}
	for _, f := range s.Files {
		i, ok := index[f.Generation]
		if !ok {
			index[f.Generation] = len(d.Generations)
			i = len(d.Generations)
			d.Generations = append(d.Generations, GenerationReport{Generation: f.Generation})
		}
		g := &d.Generations[i]
		g.Files++
		g.Rows += f.Rows
		g.Emitted += f.Emitted
		g.Accepted += f.Accepted
		g.RedactedSalary += f.RedactedSalary
		g.RedactedService += f.RedactedService
		g.RedactedTags += f.RedactedTags
		g.Rejected = addCounts(g.Rejected, f.Rejected)
		g.Malformed = addCounts(g.Malformed, f.Malformed)
	}

	for _, t := range events.Types() {
		for _, w := range plan.Windows(t) {
			wr := WindowReport{Generation: w.Generation, Type: t, Declared: w.String()}
			if span, ok := s.Coverage.Span(w.Generation, t); ok {
				wr.RealizedFirst, wr.RealizedLast, wr.Events = span.First, span.Last, span.Events
			}
			d.Windows = append(d.Windows, wr)
		}
	}

	warnings := s.Unresolved.Warnings()
	if warnings == nil {
		warnings = []errors.UnresolvedEntityWarning{}
	}
	d.Unresolved = UnresolvedReport{
		Events:   s.Unresolved.Events(),
		Distinct: len(warnings),
		IDs:      warnings,
	}
	return d
}

func addCounts(dst, src map[string]int64) map[string]int64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]int64, len(src))
	}
	for k, v := range src {
		dst[k] += v
	}
	return dst
}

// Rejected returns the total of every rejection reason across files.
func (d Diagnostics) Rejected() map[string]int64 {
	out := make(map[string]int64)
	for _, g := range d.Generations {
		out = addCounts(out, g.Rejected)
	}
	return out
}
