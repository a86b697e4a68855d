package fedtrack

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/fedtrack/pkg/artifacts"
	"github.com/agentstation/fedtrack/pkg/crosswalk"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/projection"
	"github.com/agentstation/fedtrack/pkg/reconciler"
)

// DiagnosticsName is the artifact holding run diagnostics.
const DiagnosticsName = "diagnostics.json"

// Result describes a completed build.
type Result struct {
	RunID       string
	Artifacts   artifacts.Manifest
	Diagnostics reconciler.Diagnostics
	Sources     int
	DryRun      bool
	Duration    time.Duration
}

// Build implements Tracker.
func (t *tracker) Build(ctx context.Context) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Step 0: run id and timeout
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)
	logger := logging.FromContext(ctx)
	start := t.config.now()
	if t.config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.timeout)
		defer cancel()
	}

	// Step 1: ownership plan and source discovery
	plan, err := t.manifest.Plan()
	if err != nil {
		return nil, err
	}
	inputs, err := t.manifest.Discover(ctx, t.fsys)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("sources", len(inputs)).Msg("sources discovered")

	// Step 2: crosswalk and name seed
	opts, err := t.reconcilerOptions(ctx)
	if err != nil {
		return nil, err
	}
	metrics := reconciler.NewMetrics()
	opts = append(opts, reconciler.WithMetrics(metrics))

	// Step 3: ingest every source
	rec, err := reconciler.New(plan, opts...)
	if err != nil {
		return nil, err
	}
	state, err := rec.Ingest(ctx, t.fsys, inputs)
	if err != nil {
		return nil, err
	}

	// Step 4: project finalized state
	projector, err := projection.New()
	if err != nil {
		return nil, err
	}
	docs, err := projector.Project(ctx, projection.Input{
		Set:         state.Set,
		Names:       state.Names,
		Coverage:    state.Coverage,
		GeneratedAt: start,
	})
	if err != nil {
		return nil, err
	}
	diagnostics := state.Diagnostics(plan)

	// Step 5: stage everything, then commit
	mat, err := artifacts.New(t.config.outputDir,
		artifacts.WithRunID(runID),
		artifacts.WithDryRun(t.config.dryRun),
		artifacts.WithIndent(t.config.indent),
		artifacts.WithOnWrite(func(e artifacts.Entry) {
			metrics.ArtifactWritten()
			t.hooks.artifactWritten(e)
		}),
	)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if err := mat.Abort(); err != nil {
				logger.Warn().Err(err).Msg("could not remove staging directory")
			}
		}
	}()
	for _, d := range docs {
		if _, err := mat.Stage(d.Name, d.Value); err != nil {
			return nil, err
		}
	}
	if _, err := mat.Stage(DiagnosticsName, diagnostics); err != nil {
		return nil, err
	}
	listing, err := mat.Commit(ctx)
	if err != nil {
		return nil, err
	}
	committed = true

	// Step 6: metrics
	if path := t.config.metricsTextfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("could not write metrics textfile")
		}
	}

	result := &Result{
		RunID:       runID,
		Artifacts:   listing,
		Diagnostics: diagnostics,
		Sources:     len(inputs),
		DryRun:      t.config.dryRun,
		Duration:    t.config.now().Sub(start),
	}
	logger.Info().
		Int("artifacts", len(listing.Artifacts)).
		Int64("unresolved_events", diagnostics.Unresolved.Events).
		Dur("duration", result.Duration).
		Msg("build complete")
	return result, nil
}

// Validate implements Tracker.
func (t *tracker) Validate(ctx context.Context) error {
	plan, err := t.manifest.Plan()
	if err != nil {
		return err
	}
	inputs, err := t.manifest.Discover(ctx, t.fsys)
	if err != nil {
		return err
	}
	rec, err := reconciler.New(plan)
	if err != nil {
		return err
	}
	return rec.Validate(ctx, t.fsys, inputs)
}

// reconcilerOptions loads the crosswalk and name seed of the run.
func (t *tracker) reconcilerOptions(ctx context.Context) ([]reconciler.Option, error) {
	logger := logging.FromContext(ctx)
	var opts []reconciler.Option
	if t.config.workers > 0 {
		opts = append(opts, reconciler.WithWorkers(t.config.workers))
	}
	opts = append(opts, reconciler.WithOnSourceLoaded(t.hooks.sourceLoaded))

	if cw := t.manifest.Crosswalk; cw != nil {
		layout := crosswalk.DefaultLayout()
		if cw.Layout != nil {
			layout = *cw.Layout
		}
		f, err := t.fsys.Open(cw.Path)
		if err != nil {
			return nil, errors.NewConfigError("crosswalk", "cannot open "+cw.Path, err)
		}
		defer func() { _ = f.Close() }()
		resolver, err := crosswalk.Load(ctx, cw.Path, f, layout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reconciler.WithCrosswalk(resolver))
	} else {
		logger.Warn().Msg("no crosswalk configured, sub-entities will be unresolved")
	}

	seed, err := t.readSeed()
	if err != nil {
		return nil, err
	}
	if len(seed) > 0 {
		logger.Debug().Int("names", len(seed)).Msg("entity names seeded")
		opts = append(opts, reconciler.WithSeed(seed))
	}
	return opts, nil
}

// readSeed reads the configured seed file, the manifest's seed inside the
// data directory, or a previous run's agency list, in that order.
func (t *tracker) readSeed() (map[string]string, error) {
	switch {
	case t.config.seedPath != "":
		f, err := os.Open(t.config.seedPath)
		if err != nil {
			return nil, errors.WrapIO("open", t.config.seedPath, err)
		}
		defer func() { _ = f.Close() }()
		return reconciler.ReadSeed(t.config.seedPath, f)
	case t.manifest.Seed != "":
		f, err := t.fsys.Open(t.manifest.Seed)
		if err != nil {
			return nil, errors.WrapIO("open", t.manifest.Seed, err)
		}
		defer func() { _ = f.Close() }()
		return reconciler.ReadSeed(t.manifest.Seed, f)
	}
	previous := filepath.Join(t.config.outputDir, "agency-list.json")
	f, err := os.Open(previous)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("open", previous, err)
	}
	defer func() { _ = f.Close() }()
	return reconciler.ReadSeed(previous, f)
}
