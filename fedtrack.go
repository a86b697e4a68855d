// Package fedtrack reconciles federal workforce extracts into a family of
// JSON artifacts.
//
// A Tracker reads a run manifest, discovers the source files of every
// declared generation, accumulates them under the manifest's ownership
// windows and writes the projected artifacts to an output directory:
//
//	t, err := fedtrack.New(
//		fedtrack.WithDataDir("data"),
//		fedtrack.WithOutputDir("public/data"),
//	)
//	if err != nil {
//		return err
//	}
//	result, err := t.Build(ctx)
package fedtrack

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/manifest"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// Tracker builds and validates artifact runs.
type Tracker interface {
	// Build runs the full pipeline and commits the artifacts.
	Build(ctx context.Context) (*Result, error)

	// Validate checks the manifest and every source header without
	// accumulating or writing anything.
	Validate(ctx context.Context) error

	// Manifest returns the manifest in effect.
	Manifest() *manifest.Manifest

	// Plan returns the validated ownership windows.
	Plan() (*timeline.Plan, error)

	// OnArtifact registers a callback for each committed artifact
	OnArtifact(ArtifactHook)

	// OnSourceLoaded registers a callback for each ingested source file
	OnSourceLoaded(SourceLoadedHook)
}

// tracker is the internal implementation of the Tracker interface
type tracker struct {
	mu       sync.Mutex
	config   *config
	manifest *manifest.Manifest
	fsys     fs.FS

	// Event hooks
	hooks *hooks
}

// New creates a new Tracker with the given options
func New(opts ...Option) (Tracker, error) {
	t := &tracker{
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	if err := t.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	m, err := t.loadManifest()
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	t.manifest = m

	t.fsys = t.config.fsys
	if t.fsys == nil {
		if _, err := os.Stat(t.config.dataDir); err != nil {
			return nil, errors.NewConfigError("data", "data directory "+t.config.dataDir+" is not readable", err)
		}
		t.fsys = os.DirFS(t.config.dataDir)
	}
	return t, nil
}

func (t *tracker) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(t.config); err != nil {
			return err
		}
	}
	return nil
}

func (t *tracker) loadManifest() (*manifest.Manifest, error) {
	switch {
	case t.config.manifest != nil:
		return t.config.manifest, nil
	case t.config.manifestPath != "":
		return manifest.Load(t.config.manifestPath)
	default:
		return manifest.Default(t.config.cutoff), nil
	}
}

// Manifest implements Tracker.
func (t *tracker) Manifest() *manifest.Manifest {
	return t.manifest
}

// Plan implements Tracker.
func (t *tracker) Plan() (*timeline.Plan, error) {
	return t.manifest.Plan()
}
