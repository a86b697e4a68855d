package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fedtrack"
	"github.com/agentstation/fedtrack/pkg/artifacts"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/manifest"
	"github.com/agentstation/fedtrack/pkg/reconciler"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// fakeTracker records how it was built and returns a canned result.
type fakeTracker struct {
	opts      int
	result    *fedtrack.Result
	err       error
	validated bool
	artifact  fedtrack.ArtifactHook
	loaded    fedtrack.SourceLoadedHook
}

func (f *fakeTracker) Build(context.Context) (*fedtrack.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.loaded != nil {
		f.loaded(reconciler.FileReport{Path: "SEPDATA_2023.TXT", Generation: "legacy", Accepted: 3})
	}
	if f.artifact != nil {
		f.artifact(artifacts.Entry{Name: "separations.json", Size: 10})
	}
	return f.result, nil
}

func (f *fakeTracker) Validate(context.Context) error {
	f.validated = true
	return f.err
}

func (f *fakeTracker) Manifest() *manifest.Manifest { return manifest.Default(0) }

func (f *fakeTracker) Plan() (*timeline.Plan, error) { return f.Manifest().Plan() }

func (f *fakeTracker) OnArtifact(fn fedtrack.ArtifactHook) { f.artifact = fn }

func (f *fakeTracker) OnSourceLoaded(fn fedtrack.SourceLoadedHook) { f.loaded = fn }

func testApp(t *testing.T, fake *fakeTracker) *App {
	t.Helper()
	logger := logging.NewNopLogger()
	app, err := New("1.2.3", "abc123", "2025-01-01", "test",
		WithConfig(&Config{OutDir: "out", DataDir: ".", Format: "json"}),
		WithLogger(logger),
		WithTrackerFactory(func(opts ...fedtrack.Option) (fedtrack.Tracker, error) {
			fake.opts = len(opts)
			return fake, nil
		}),
	)
	require.NoError(t, err)
	return app
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	cmd := app.createRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNew(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", app.Version())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())

	_, err = New("1.0.0", "", "", "", WithConfig(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, testApp(t, &fakeTracker{}), "version", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "fedtrack 1.2.3")
	assert.Contains(t, out, "commit:   abc123")
}

func TestWindowsCommand(t *testing.T) {
	out, err := run(t, testApp(t, &fakeTracker{}), "windows", "--cutoff", "202312")
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 7)
	assert.Equal(t, map[string]string{
		"TYPE": "separation", "GENERATION": "legacy", "RANK": "1", "FROM": "open", "THROUGH": "202312",
	}, rows[0])
	assert.Equal(t, "202401", rows[1]["FROM"])
	assert.Equal(t, "employment_snapshot", rows[6]["TYPE"])
}

func TestWindowsCommandRejectsBadCutoff(t *testing.T) {
	_, err := run(t, testApp(t, &fakeTracker{}), "windows", "--cutoff", "202313")
	assert.True(t, errors.IsValidationError(err))
}

func TestBuildCommand(t *testing.T) {
	fake := &fakeTracker{result: &fedtrack.Result{
		RunID:     "run-1",
		Sources:   5,
		Artifacts: artifacts.Manifest{Artifacts: []artifacts.Entry{{Name: "separations.json"}, {Name: "trends.json"}}},
		Diagnostics: reconciler.Diagnostics{
			Generations: []reconciler.GenerationReport{{Generation: "legacy", Files: 2, Accepted: 3}},
			Unresolved:  reconciler.UnresolvedReport{Events: 1},
		},
		Duration: 1500 * time.Millisecond,
	}}
	app := testApp(t, fake)

	out, err := run(t, app, "build", "--out", "site", "--workers", "2", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "site", app.Config().OutDir)
	assert.Equal(t, 2, app.Config().Workers)
	// out-dir, data-dir, workers from config plus dry-run and indent
	assert.Equal(t, 5, fake.opts)

	var summary buildSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 2, summary.Artifacts)
	assert.Equal(t, int64(1), summary.Unresolved)
	assert.Equal(t, "1.5s", summary.Duration)
	require.Len(t, summary.Generations, 1)
}

func TestBuildCommandTable(t *testing.T) {
	fake := &fakeTracker{result: &fedtrack.Result{
		RunID: "run-2",
		Diagnostics: reconciler.Diagnostics{
			Generations: []reconciler.GenerationReport{{Generation: "monthly", Files: 1, Rows: 4, Accepted: 4}},
		},
	}}
	out, err := run(t, testApp(t, fake), "build", "-o", "table", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "run run-2: would write 0 artifacts from 0 sources")
	assert.Contains(t, out, "monthly")
}

func TestBuildCommandError(t *testing.T) {
	fake := &fakeTracker{err: errors.NewSchemaMismatchError("SEPDATA_2023.TXT", "AGYSUB", nil)}
	_, err := run(t, testApp(t, fake), "build")
	assert.True(t, errors.IsSchemaMismatch(err))
}

func TestValidateCommand(t *testing.T) {
	fake := &fakeTracker{}
	out, err := run(t, testApp(t, fake), "validate", "--data-dir", "data")
	require.NoError(t, err)
	assert.True(t, fake.validated)
	assert.Contains(t, out, "valid")
}
