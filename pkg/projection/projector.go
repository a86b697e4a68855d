// Package projection derives the published artifact families from the
// finalized accumulator tables of a run.
//
// Projection runs once, after every generation has been loaded and merged,
// so net changes and rankings are computed over the complete state.
package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/authority"
	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// Artifact is one named output document. Name is a slash-separated path
// relative to the output directory.
type Artifact struct {
	Name  string
	Value any
}

// Input is the finalized state of a run.
type Input struct {
	Set         *accumulator.Set
	Names       *authority.Book
	Coverage    *timeline.Coverage
	GeneratedAt time.Time
}

// Option configures a Projector.
type Option func(*options) error

type options struct {
	agencyDetailLimit   int
	occupationDetailMin int64
	quitRateMin         int64
}

func defaultOptions() *options {
	return &options{
		agencyDetailLimit:   constants.AgencyDetailLimit,
		occupationDetailMin: constants.OccupationDetailMinEmployees,
		quitRateMin:         constants.QuitRateMinSeparations,
	}
}

// WithAgencyDetailLimit sets how many of the largest agencies get a detail
// artifact. Zero means all of them.
func WithAgencyDetailLimit(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("agencyDetailLimit", n, "must not be negative")
		}
		o.agencyDetailLimit = n
		return nil
	}
}

// WithOccupationDetailMinimum sets the headcount an occupation needs for a
// detail artifact.
func WithOccupationDetailMinimum(n int64) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("occupationDetailMin", n, "must not be negative")
		}
		o.occupationDetailMin = n
		return nil
	}
}

// WithQuitRateMinimum sets the separation count an agency must exceed to be
// ranked by quit rate.
func WithQuitRateMinimum(n int64) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("quitRateMin", n, "must not be negative")
		}
		o.quitRateMin = n
		return nil
	}
}

// Projector turns finalized tables into artifacts.
type Projector struct {
	options *options
}

// New creates a projector.
func New(opts ...Option) (*Projector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errors.WrapValidation("option", err)
		}
	}
	return &Projector{options: o}, nil
}

// view is the state shared by every family of one projection.
type view struct {
	*options
	set      *accumulator.Set
	names    *authority.Book
	coverage *timeline.Coverage
	at       time.Time

	// latest snapshot month; zero when no snapshot was loaded
	latest events.Month
	codes  []string
}

// Project derives every artifact family from in. The result is a pure
// function of in: repeated calls return equal artifacts.
func (p *Projector) Project(ctx context.Context, in Input) ([]Artifact, error) {
	if in.Set == nil {
		return nil, errors.NewValidationError("set", nil, "accumulator set is required")
	}
	v := &view{
		options:  p.options,
		set:      in.Set,
		names:    in.Names,
		coverage: in.Coverage,
		at:       in.GeneratedAt.UTC(),
	}
	if v.names == nil {
		v.names = authority.NewBook()
	}
	if v.coverage == nil {
		v.coverage = timeline.NewCoverage()
	}
	if months := in.Set.Months(events.Snapshot); len(months) > 0 {
		v.latest = months[len(months)-1]
	}
	v.codes = v.categoryCodes()

	families := []struct {
		name string
		fn   func() []Artifact
	}{
		{"separations", v.separations},
		{"trends", v.trends},
		{"agency-separations", v.agencySeparations},
		{"separation-types", v.separationTypes},
		{"agencies", v.agencies},
		{"occupations", v.occupations},
		{"states", v.states},
		{"salary-stats", v.salaryStats},
		{"headline", v.headline},
		{"impact", v.impact},
		{"exports", v.exports},
	}

	logger := logging.FromContext(ctx)
	var out []Artifact
	for _, f := range families {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}
		arts := f.fn()
		logger.Debug().Str("family", f.name).Int("artifacts", len(arts)).Msg("projected")
		out = append(out, arts...)
	}
	return out, nil
}

// agencyName returns the display name of an entity.
func (v *view) agencyName(code string) string {
	return v.names.Display(authority.Agency, code)
}

// dimName returns the display name of a dimension code.
func (v *view) dimName(d events.Dimension, code string) string {
	return v.names.Display(authority.DimensionSubject(d), code)
}

// snapshot keeps only buckets of the latest snapshot month.
func (v *view) snapshot(k accumulator.Key) bool {
	return k.Month == v.latest
}

// grouped rolls t into outer -> inner -> bucket over the keys keep accepts.
func grouped(t *accumulator.Table, keep func(accumulator.Key) bool, outer, inner func(accumulator.Key) string) map[string]map[string]accumulator.Bucket {
	out := make(map[string]map[string]accumulator.Bucket)
	if t == nil {
		return out
	}
	t.Each(func(k accumulator.Key, b accumulator.Bucket) {
		if keep != nil && !keep(k) {
			return
		}
		o, i := outer(k), inner(k)
		m, ok := out[o]
		if !ok {
			m = make(map[string]accumulator.Bucket)
			out[o] = m
		}
		cur := m[i]
		cur.Merge(b)
		m[i] = cur
	})
	return out
}

// rolled rolls t into a single level keyed by keyFn.
func rolled(t *accumulator.Table, keep func(accumulator.Key) bool, keyFn func(accumulator.Key) string) map[string]accumulator.Bucket {
	if t == nil {
		return map[string]accumulator.Bucket{}
	}
	return accumulator.Rollup(t, func(k accumulator.Key) (string, bool) {
		if keep != nil && !keep(k) {
			return "", false
		}
		return keyFn(k), true
	})
}

func byEntity(k accumulator.Key) string { return k.Entity }
func byFirst(k accumulator.Key) string  { return k.Values[0] }
func bySecond(k accumulator.Key) string { return k.Values[1] }
