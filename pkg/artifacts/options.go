package artifacts

import "github.com/agentstation/fedtrack/pkg/errors"

// Option configures a Materializer.
type Option func(*options) error

type options struct {
	indent  bool
	dryRun  bool
	prune   bool
	runID   string
	onWrite func(Entry)
}

func defaultOptions() *options {
	return &options{prune: true}
}

// WithIndent writes artifacts with two-space indentation.
func WithIndent(indent bool) Option {
	return func(o *options) error {
		o.indent = indent
		return nil
	}
}

// WithDryRun encodes and digests artifacts without touching the output
// directory.
func WithDryRun(dryRun bool) Option {
	return func(o *options) error {
		o.dryRun = dryRun
		return nil
	}
}

// WithPrune controls whether artifacts listed by the previous manifest but
// not produced by this run are removed on commit. Enabled by default.
func WithPrune(prune bool) Option {
	return func(o *options) error {
		o.prune = prune
		return nil
	}
}

// WithRunID names the staging directory. A random id is used otherwise.
func WithRunID(id string) Option {
	return func(o *options) error {
		if id == "" {
			return errors.NewValidationError("runID", id, "run id cannot be empty")
		}
		o.runID = id
		return nil
	}
}

// WithOnWrite registers a callback invoked for every committed artifact.
func WithOnWrite(fn func(Entry)) Option {
	return func(o *options) error {
		o.onWrite = fn
		return nil
	}
}
