// Package manifest describes a run: which generations exist, which months
// each owns, which files belong to them and how those files are laid out.
package manifest

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/crosswalk"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/sources"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// Manifest is the declarative description of a run.
type Manifest struct {
	Version     int              `yaml:"version"`
	Crosswalk   *Crosswalk       `yaml:"crosswalk,omitempty"`
	Seed        string           `yaml:"seed,omitempty"`
	Layouts     []sources.Layout `yaml:"layouts,omitempty"`
	Generations []Generation     `yaml:"generations"`
}

// Crosswalk locates the sub-entity table.
type Crosswalk struct {
	Path   string            `yaml:"path"`
	Layout *crosswalk.Layout `yaml:"layout,omitempty"`
}

// Range is a month window; zero bounds are open.
type Range struct {
	From    events.Month `yaml:"from,omitempty"`
	Through events.Month `yaml:"through,omitempty"`
}

// Generation is one family of source files sharing a layout era.
type Generation struct {
	ID    string `yaml:"id"`
	Rank  int    `yaml:"rank"`
	Range `yaml:",inline"`
	// Windows overrides Range for individual event types.
	Windows map[events.Type]Range `yaml:"windows,omitempty"`
	Sources []Source              `yaml:"sources"`
}

// Source is a glob of files read with one layout.
type Source struct {
	Layout string       `yaml:"layout"`
	Glob   string       `yaml:"glob"`
	Month  events.Month `yaml:"month,omitempty"`
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(path, data)
}

// Parse decodes manifest YAML.
func Parse(name string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	return &m, nil
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// Registry returns the built-in layouts overlaid with the manifest's own.
func (m *Manifest) Registry() *sources.Registry {
	r := sources.DefaultRegistry()
	for _, l := range m.Layouts {
		r.Set(l)
	}
	return r
}

// Validate checks the manifest for structural errors.
func (m *Manifest) Validate() error {
	if len(m.Generations) == 0 {
		return errors.NewValidationError("generations", nil, "at least one generation is required")
	}
	for _, l := range m.Layouts {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	reg := m.Registry()
	seen := make(map[string]bool)
	for _, g := range m.Generations {
		if g.ID == "" {
			return errors.NewValidationError("generations.id", g.ID, "generation id is required")
		}
		if seen[g.ID] {
			return errors.NewValidationError("generations.id", g.ID, "duplicate generation id")
		}
		seen[g.ID] = true
		if len(g.Sources) == 0 {
			return errors.NewValidationError("generations.sources", g.ID, "generation "+g.ID+" declares no sources")
		}
		for _, s := range g.Sources {
			l, ok := reg.Get(s.Layout)
			if !ok {
				return errors.NewNotFoundError("layout", s.Layout)
			}
			if !doublestar.ValidatePattern(s.Glob) || s.Glob == "" {
				return errors.NewValidationError("sources.glob", s.Glob, "invalid glob pattern")
			}
			if l.NeedsFixedMonth() && s.Month == 0 {
				return errors.NewValidationError("sources.month", s.Glob, fmt.Sprintf("layout %s needs a declared month", l.Name))
			}
		}
	}
	if m.Crosswalk != nil && m.Crosswalk.Path == "" {
		return errors.NewValidationError("crosswalk.path", "", "crosswalk path is required")
	}
	_, err := m.Plan()
	return err
}

// Windows derives one window per generation and event type it supplies.
func (m *Manifest) Windows() []timeline.Window {
	reg := m.Registry()
	var out []timeline.Window
	for _, g := range m.Generations {
		var types []events.Type
		for _, s := range g.Sources {
			if l, ok := reg.Get(s.Layout); ok && !slices.Contains(types, l.EventType) {
				types = append(types, l.EventType)
			}
		}
		for _, t := range types {
			r := g.Range
			if override, ok := g.Windows[t]; ok {
				r = override
			}
			out = append(out, timeline.Window{Generation: g.ID, Rank: g.Rank, Type: t, From: r.From, Through: r.Through})
		}
	}
	return out
}

// Plan builds the validated ownership plan.
func (m *Manifest) Plan() (*timeline.Plan, error) {
	return timeline.NewPlan(m.Windows())
}

// Default returns the manifest of the published extract generations with
// the legacy generation owning months up to and including cutoff.
func Default(cutoff events.Month) *Manifest {
	if cutoff == 0 {
		cutoff = constants.LegacyCutoff
	}
	return &Manifest{
		Version:   1,
		Crosswalk: &Crosswalk{Path: "DTagy.txt"},
		Generations: []Generation{
			{
				ID:    "legacy",
				Rank:  1,
				Range: Range{Through: cutoff},
				Sources: []Source{
					{Layout: sources.LegacySeparations, Glob: "SEPDATA_*.TXT"},
					{Layout: sources.LegacyAccessions, Glob: "ACCDATA_*.TXT"},
				},
			},
			{
				ID:    "monthly",
				Rank:  2,
				Range: Range{From: cutoff.Next(), Through: 202511},
				Sources: []Source{
					{Layout: sources.MonthlySeparations, Glob: "monthly/separations_*.txt"},
					{Layout: sources.MonthlyAccessions, Glob: "monthly/accessions_*.txt"},
				},
			},
			{
				ID:    "jsonl",
				Rank:  3,
				Range: Range{From: 202512},
				Sources: []Source{
					{Layout: sources.JSONLSeparations, Glob: "separations-*.json"},
					{Layout: sources.JSONLAccessions, Glob: "accessions-*.json"},
				},
			},
			{
				ID:    "snapshot",
				Rank:  4,
				Range: Range{From: 202512},
				Sources: []Source{
					{Layout: sources.EmploymentSnapshot, Glob: "employment-*.txt", Month: 202512},
				},
			},
		},
	}
}
