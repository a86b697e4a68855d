// Package app provides the application context and dependency management
// for the fedtrack CLI. It centralizes configuration, the logger, and the
// construction of trackers for the commands.
package app

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/fedtrack"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/manifest"
)

// App represents the fedtrack application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// newTracker builds trackers; replaced in tests
	newTracker func(opts ...fedtrack.Option) (fedtrack.Tracker, error)
}

// New creates a new App instance with the given version information.
// The app is initialized with the loaded configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:    version,
		commit:     commit,
		date:       date,
		builtBy:    builtBy,
		newTracker: fedtrack.New,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Tracker creates a tracker from the configuration. Options passed by the
// command are applied after the configured ones.
func (a *App) Tracker(opts ...fedtrack.Option) (fedtrack.Tracker, error) {
	return a.newTracker(append(a.trackerOptions(), opts...)...)
}

// Manifest returns the configured run manifest without touching the data
// directory.
func (a *App) Manifest() (*manifest.Manifest, error) {
	if a.config.Manifest != "" {
		return manifest.Load(a.config.Manifest)
	}
	cutoff := events.Month(a.config.Cutoff)
	if cutoff != 0 && !cutoff.Valid() {
		return nil, errors.NewValidationError("cutoff", a.config.Cutoff, "must be a YYYYMM month")
	}
	return manifest.Default(cutoff), nil
}

// trackerOptions constructs tracker options from the app configuration.
func (a *App) trackerOptions() []fedtrack.Option {
	var opts []fedtrack.Option

	if a.config.Manifest != "" {
		opts = append(opts, fedtrack.WithManifestFile(a.config.Manifest))
	}
	if a.config.Cutoff != 0 {
		opts = append(opts, fedtrack.WithCutoff(events.Month(a.config.Cutoff)))
	}
	if a.config.DataDir != "" {
		opts = append(opts, fedtrack.WithDataDir(a.config.DataDir))
	}
	if a.config.OutDir != "" {
		opts = append(opts, fedtrack.WithOutputDir(a.config.OutDir))
	}
	if a.config.Seed != "" {
		opts = append(opts, fedtrack.WithSeedFile(a.config.Seed))
	}
	if a.config.Workers > 0 {
		opts = append(opts, fedtrack.WithWorkers(a.config.Workers))
	}
	if a.config.MetricsTextfile != "" {
		opts = append(opts, fedtrack.WithMetricsTextfile(a.config.MetricsTextfile))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithTrackerFactory replaces the tracker constructor (useful for testing).
func WithTrackerFactory(fn func(opts ...fedtrack.Option) (fedtrack.Tracker, error)) Option {
	return func(a *App) error {
		if fn == nil {
			return &errors.ValidationError{Field: "trackerFactory", Message: "cannot be nil"}
		}
		a.newTracker = fn
		return nil
	}
}
