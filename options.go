package fedtrack

import (
	"io/fs"
	"time"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/manifest"
)

// config holds the settings of a Tracker.
type config struct {
	manifest        *manifest.Manifest
	manifestPath    string
	dataDir         string
	fsys            fs.FS
	outputDir       string
	seedPath        string
	cutoff          events.Month
	workers         int
	dryRun          bool
	indent          bool
	metricsTextfile string
	timeout         time.Duration
	now             func() time.Time
}

func defaultConfig() *config {
	return &config{
		dataDir:   ".",
		outputDir: "out",
		cutoff:    constants.LegacyCutoff,
		timeout:   constants.BuildTimeout,
		now:       time.Now,
	}
}

// Option is a function that configures a Tracker instance
type Option func(*config) error

// WithManifest uses m instead of loading a manifest file
func WithManifest(m *manifest.Manifest) Option {
	return func(c *config) error {
		if m == nil {
			return &errors.ValidationError{Field: "manifest", Message: "cannot be nil"}
		}
		c.manifest = m
		return nil
	}
}

// WithManifestFile loads the run manifest from path
func WithManifestFile(path string) Option {
	return func(c *config) error {
		c.manifestPath = path
		return nil
	}
}

// WithCutoff sets the last month owned by the legacy generation when the
// built-in manifest is used
func WithCutoff(m events.Month) Option {
	return func(c *config) error {
		if !m.Valid() {
			return &errors.ValidationError{Field: "cutoff", Value: m, Message: "not a valid YYYYMM month"}
		}
		c.cutoff = m
		return nil
	}
}

// WithDataDir sets the directory source globs are matched against
func WithDataDir(dir string) Option {
	return func(c *config) error {
		c.dataDir = dir
		return nil
	}
}

// WithFS reads sources from fsys instead of the data directory
func WithFS(fsys fs.FS) Option {
	return func(c *config) error {
		c.fsys = fsys
		return nil
	}
}

// WithOutputDir sets where artifacts are written
func WithOutputDir(dir string) Option {
	return func(c *config) error {
		if dir == "" {
			return &errors.ValidationError{Field: "outputDir", Message: "cannot be empty"}
		}
		c.outputDir = dir
		return nil
	}
}

// WithSeedFile reads entity names from a previous agency-list.json
func WithSeedFile(path string) Option {
	return func(c *config) error {
		c.seedPath = path
		return nil
	}
}

// WithWorkers bounds how many source files are read in parallel
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "cannot be negative"}
		}
		c.workers = n
		return nil
	}
}

// WithDryRun runs the pipeline without writing artifacts
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}

// WithIndent writes indented artifacts
func WithIndent(enabled bool) Option {
	return func(c *config) error {
		c.indent = enabled
		return nil
	}
}

// WithMetricsTextfile writes run metrics to path after a build
func WithMetricsTextfile(path string) Option {
	return func(c *config) error {
		c.metricsTextfile = path
		return nil
	}
}

// WithTimeout bounds a build. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.timeout = d
		return nil
	}
}

// WithClock sets the source of the generatedAt timestamp
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		c.now = now
		return nil
	}
}
