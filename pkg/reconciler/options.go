package reconciler

import (
	"runtime"

	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/crosswalk"
	"github.com/agentstation/fedtrack/pkg/errors"
)

// options configures a reconciler.
type options struct {
	workers   int
	crosswalk *crosswalk.Resolver
	seed      map[string]string
	shapes    []accumulator.Shape
	metrics   *Metrics
	onLoaded  []func(FileReport)
}

func defaultOptions() *options {
	return &options{
		workers: runtime.NumCPU(),
		shapes:  accumulator.DefaultShapes(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithWorkers bounds the number of files read in parallel.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{
				Field:   "workers",
				Value:   n,
				Message: "must be at least 1",
			}
		}
		o.workers = n
		return nil
	}
}

// WithCrosswalk sets the sub-entity resolver. Without one every
// sub-entity is unresolved.
func WithCrosswalk(r *crosswalk.Resolver) Option {
	return func(o *options) error {
		o.crosswalk = r
		return nil
	}
}

// WithSeed provides entity names from a previous run. They lose to any
// name a source delivers.
func WithSeed(names map[string]string) Option {
	return func(o *options) error {
		o.seed = names
		return nil
	}
}

// WithShapes replaces the accumulator tables.
func WithShapes(shapes []accumulator.Shape) Option {
	return func(o *options) error {
		if len(shapes) == 0 {
			return &errors.ValidationError{
				Field:   "shapes",
				Message: "cannot be empty",
			}
		}
		o.shapes = shapes
		return nil
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithOnSourceLoaded registers a callback invoked once per ingested file,
// in manifest order, after every file has been read.
func WithOnSourceLoaded(fn func(FileReport)) Option {
	return func(o *options) error {
		if fn == nil {
			return &errors.ValidationError{
				Field:   "onSourceLoaded",
				Message: "cannot be nil",
			}
		}
		o.onLoaded = append(o.onLoaded, fn)
		return nil
	}
}
