// Package sources turns source files into canonical events.
//
// Each published generation of workforce extracts has its own column names,
// delimiters, identifier widths and redaction sentinels. A Layout captures
// those differences as data; an Adapter reads one file according to a
// Layout and emits events.Event values, rejecting the whole file up front
// when a required column is missing.
//
// Example usage:
//
//	layout, _ := sources.DefaultRegistry().Get(sources.MonthlySeparations)
//	adapter, err := sources.NewAdapter(layout, sources.WithGeneration("monthly", 2))
//	if err != nil {
//	    return err
//	}
//	stats, err := adapter.Adapt(ctx, "separations_202310.txt", f, func(e events.Event) error {
//	    return sink.Add(e)
//	})
package sources

import (
	"context"
	"io"
	"regexp"
	"slices"
	"sync"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Adapter reads one source file and emits canonical events.
type Adapter interface {
	// Layout returns the layout the adapter reads.
	Layout() Layout

	// Adapt reads r, calling emit once per accepted row. name is the file
	// name used for month extraction and error messages. Structural
	// problems return an error before emit is ever called.
	Adapt(ctx context.Context, name string, r io.Reader, emit func(events.Event) error) (Stats, error)
}

// Stats counts what an adapter saw in one file.
type Stats struct {
	Rows            int64            `json:"rows"`
	Emitted         int64            `json:"emitted"`
	Malformed       map[string]int64 `json:"malformed,omitempty"`
	RedactedSalary  int64            `json:"redactedSalary"`
	RedactedService int64            `json:"redactedService"`
	RedactedTags    int64            `json:"redactedTags"`
}

// MalformedTotal returns the number of rows skipped as malformed.
func (s *Stats) MalformedTotal() int64 {
	var n int64
	for _, v := range s.Malformed {
		n += v
	}
	return n
}

func (s *Stats) malformed(reason string) {
	if s.Malformed == nil {
		s.Malformed = make(map[string]int64)
	}
	s.Malformed[reason]++
}

// Option configures an adapter.
type Option func(*options) error

type options struct {
	generation string
	rank       int
	fixedMonth events.Month
}

// WithGeneration stamps emitted events with a generation id and rank.
func WithGeneration(id string, rank int) Option {
	return func(o *options) error {
		if id == "" {
			return errors.NewValidationError("generation", id, "generation id is required")
		}
		o.generation = id
		o.rank = rank
		return nil
	}
}

// WithFixedMonth assigns every row of the file to m.
func WithFixedMonth(m events.Month) Option {
	return func(o *options) error {
		if !m.Valid() {
			return errors.NewValidationError("month", m, "invalid fixed month")
		}
		o.fixedMonth = m
		return nil
	}
}

// NewAdapter returns the adapter for layout's format.
func NewAdapter(layout Layout, opts ...Option) (Adapter, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if layout.NeedsFixedMonth() && o.fixedMonth == 0 {
		return nil, errors.NewConfigError("sources", "layout "+layout.Name+" takes its month from the source declaration, none given", nil)
	}
	var pattern *regexp.Regexp
	if layout.MonthPattern != "" {
		pattern = regexp.MustCompile(layout.MonthPattern)
	}
	base := adapterBase{layout: layout, opts: *o, pattern: pattern}
	switch layout.Format {
	case JSONLines:
		return &jsonlAdapter{adapterBase: base}, nil
	default:
		return &delimitedAdapter{adapterBase: base}, nil
	}
}

// Registry is a thread-safe set of layouts keyed by name.
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]Layout
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]Layout)}
}

// DefaultRegistry returns a registry holding the built-in layouts.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, l := range BuiltinLayouts() {
		r.Set(l)
	}
	return r
}

// Get returns a layout by name.
func (r *Registry) Get(name string) (Layout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.layouts[name]
	return l, ok
}

// Set adds or replaces a layout.
func (r *Registry) Set(l Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[l.Name] = l
}

// Names returns the registered layout names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
