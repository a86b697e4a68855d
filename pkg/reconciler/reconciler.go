// Package reconciler ingests the source files of a run into one State.
//
// Files are read in parallel, each into a private partial state, and the
// partials are merged serially in manifest order once every reader has
// finished. Routing decides which generation owns each month, the
// crosswalk maps sub-entities to entities, and the ledger guards against
// any (type, entity, month) cell being claimed by two generations.
package reconciler

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/fedtrack/pkg/authority"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/manifest"
	"github.com/agentstation/fedtrack/pkg/sources"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// Reconciler turns source files into accumulated state.
type Reconciler interface {
	// Ingest reads every input and returns the merged state. Any
	// structural error aborts the whole run.
	Ingest(ctx context.Context, fsys fs.FS, inputs []manifest.Input) (*State, error)

	// Validate checks every input's header against its layout without
	// accumulating anything. All failures are reported together.
	Validate(ctx context.Context, fsys fs.FS, inputs []manifest.Input) error
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	plan    *timeline.Plan
	options *options
}

// New creates a Reconciler routing events through plan.
func New(plan *timeline.Plan, opts ...Option) (Reconciler, error) {
	if plan == nil {
		return nil, &errors.ValidationError{Field: "plan", Message: "cannot be nil"}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{plan: plan, options: options}, nil
}

// seqShift leaves room for 2^32 rows per file in a sighting sequence.
const seqShift = 32

// Ingest implements Reconciler.
func (r *reconciler) Ingest(ctx context.Context, fsys fs.FS, inputs []manifest.Input) (*State, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	state, err := NewState(r.options.shapes)
	if err != nil {
		return nil, err
	}
	for code, name := range r.options.seed {
		state.Names.Seed(authority.Agency, code, name)
	}

	partials := make([]*State, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.options.workers)
	for i, in := range inputs {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("panic reading %s: %v", in.Path, p)
				}
			}()
			partial := state.fresh()
			if err := r.ingestFile(gctx, fsys, in, partial); err != nil {
				return err
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("ingestion failed")
		return nil, err
	}

	for _, p := range partials {
		if err := state.merge(p); err != nil {
			return nil, err
		}
	}
	for _, f := range state.Files {
		for _, fn := range r.options.onLoaded {
			fn(f)
		}
	}
	if m := r.options.metrics; m != nil {
		m.unresolved.Add(float64(state.Unresolved.Events()))
	}

	logger.Info().
		Int("files", len(inputs)).
		Int("names", state.Names.Len()).
		Int64("unresolved_events", state.Unresolved.Events()).
		Dur("duration", time.Since(start)).
		Msg("ingestion complete")
	return state, nil
}

// ingestFile reads one input into partial.
func (r *reconciler) ingestFile(ctx context.Context, fsys fs.FS, in manifest.Input, partial *State) error {
	ctx = logging.WithSource(logging.WithGeneration(ctx, in.Generation), in.Path)
	logger := logging.FromContext(ctx)
	start := time.Now()

	adapter, err := r.adapter(in)
	if err != nil {
		return err
	}
	f, err := fsys.Open(in.Path)
	if err != nil {
		return errors.WrapIO("open", in.Path, err)
	}
	defer func() { _ = f.Close() }()

	report := FileReport{
		Path:       in.Path,
		Generation: in.Generation,
		Layout:     in.Layout.Name,
		Rejected:   map[string]int64{},
	}
	seq := int64(in.Index) << seqShift
	emit := func(e events.Event) error {
		seq++
		decision := r.plan.Route(e.Generation, e.Type, e.Month)
		if decision.Outcome != timeline.Accepted {
			report.Rejected[string(decision.Outcome)]++
			return nil
		}
		if e.Entity == "" {
			if entry, ok := r.options.crosswalk.Resolve(e.SubEntity); ok {
				e.Entity = entry.Entity
				if e.EntityName == "" {
					e.EntityName = entry.Name
				}
			} else {
				partial.Unresolved.Miss(e.SubEntity)
			}
		}
		if e.Entity != "" {
			if err := partial.Ledger.Claim(e.Type, e.Entity, e.Month, e.Generation); err != nil {
				return err
			}
		}
		partial.Set.Add(&e)
		partial.Names.ObserveEvent(&e, seq)
		partial.Coverage.Observe(e.Generation, e.Type, e.Month)
		report.Accepted++
		return nil
	}

	stats, err := adapter.Adapt(ctx, in.Path, f, emit)
	if err != nil {
		return err
	}
	report.Stats = stats
	partial.Files = append(partial.Files, report)

	if m := r.options.metrics; m != nil {
		m.observeFile(report, time.Since(start))
	}
	logger.Debug().
		Int64("rows", stats.Rows).
		Int64("accepted", report.Accepted).
		Int64("malformed", stats.MalformedTotal()).
		Msg("source loaded")
	return nil
}

func (r *reconciler) adapter(in manifest.Input) (sources.Adapter, error) {
	opts := []sources.Option{sources.WithGeneration(in.Generation, in.Rank)}
	if in.Month != 0 {
		opts = append(opts, sources.WithFixedMonth(in.Month))
	}
	return sources.NewAdapter(in.Layout, opts...)
}
