package sources

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Malformed row reasons.
const (
	ReasonBadMonth = "bad_month"
	ReasonBadCount = "bad_count"
	ReasonNoEntity = "no_entity"
)

type adapterBase struct {
	layout  Layout
	opts    options
	pattern *regexp.Regexp
}

func (a *adapterBase) Layout() Layout { return a.layout }

// fileMonth resolves the month shared by every row of the file, if any.
func (a *adapterBase) fileMonth(name string) (events.Month, error) {
	if a.opts.fixedMonth != 0 {
		return a.opts.fixedMonth, nil
	}
	if a.pattern == nil {
		return 0, nil
	}
	match := a.pattern.FindStringSubmatch(filepath.Base(name))
	if match == nil {
		return 0, errors.NewParseError(string(a.layout.Format), name, "file name carries no month", nil)
	}
	m, err := events.ParseMonth(match[1])
	if err != nil {
		return 0, errors.WrapParse(string(a.layout.Format), name, err)
	}
	return m, nil
}

// slots maps the columns a layout reads onto positions in a row buffer.
type slots struct {
	fields  []string
	month   int
	entity  int
	name    int
	sub     int
	count   int
	salary  int
	service int
	dims    [events.NumDimensions]int
	labels  [events.NumDimensions]int
}

func newSlots(l *Layout) *slots {
	s := &slots{}
	add := func(field string) int {
		if field == "" {
			return -1
		}
		for i, f := range s.fields {
			if strings.EqualFold(f, field) {
				return i
			}
		}
		s.fields = append(s.fields, field)
		return len(s.fields) - 1
	}
	s.month = add(l.MonthField)
	s.entity = add(l.EntityField)
	s.name = add(l.EntityNameField)
	s.sub = add(l.SubEntityField)
	s.count = add(l.CountField)
	s.salary = add(l.SalaryField)
	s.service = add(l.ServiceField)
	for d := range events.NumDimensions {
		s.dims[d], s.labels[d] = -1, -1
	}
	for name, field := range l.Dimensions {
		d, _ := events.ParseDimension(name)
		s.dims[d] = add(field)
	}
	for name, field := range l.Labels {
		d, _ := events.ParseDimension(name)
		s.labels[d] = add(field)
	}
	return s
}

// checkHeader returns a SchemaMismatchError for the first required field
// that has no column. present reports whether a field exists.
func checkHeader(l *Layout, source string, header []string, present func(string) bool) error {
	for _, f := range l.RequiredFields() {
		if !present(f) {
			return errors.NewSchemaMismatchError(source, f, header)
		}
	}
	return nil
}

// rowBuilder converts one buffered row into an event.
type rowBuilder struct {
	layout   *Layout
	opts     *options
	slots    *slots
	month    events.Month
	redacted []string
	stats    *Stats
}

func (b *rowBuilder) value(vals []string, slot int) string {
	if slot < 0 || slot >= len(vals) {
		return ""
	}
	return strings.TrimSpace(vals[slot])
}

func (b *rowBuilder) isRedacted(v string) bool {
	for _, tok := range b.redacted {
		if strings.EqualFold(v, tok) {
			return true
		}
	}
	return false
}

// build returns the event for vals, or false when the row is malformed.
func (b *rowBuilder) build(vals []string) (events.Event, bool) {
	e := events.Event{
		Type:       b.layout.EventType,
		Generation: b.opts.generation,
		Rank:       b.opts.rank,
		Month:      b.month,
	}

	if e.Month == 0 {
		m, err := events.ParseMonth(b.value(vals, b.slots.month))
		if err != nil {
			b.stats.malformed(ReasonBadMonth)
			return e, false
		}
		e.Month = m
	}

	count, err := strconv.ParseInt(strings.ReplaceAll(b.value(vals, b.slots.count), ",", ""), 10, 64)
	if err != nil || count < 0 {
		b.stats.malformed(ReasonBadCount)
		return e, false
	}
	e.Count = count

	e.Entity = normalizeID(b.value(vals, b.slots.entity), b.layout.EntityWidth)
	e.SubEntity = normalizeID(b.value(vals, b.slots.sub), b.layout.SubEntityWidth)
	if b.isRedacted(e.Entity) {
		e.Entity = ""
	}
	if e.Entity == "" && e.SubEntity == "" {
		b.stats.malformed(ReasonNoEntity)
		return e, false
	}
	e.EntityName = b.value(vals, b.slots.name)

	for d := range events.NumDimensions {
		if v := b.value(vals, b.slots.dims[d]); v != "" {
			if b.isRedacted(v) {
				b.stats.RedactedTags++
			} else {
				if d == events.Category || d == events.State {
					v = strings.ToUpper(v)
				}
				e.Tags[d] = v
			}
		}
		if v := b.value(vals, b.slots.labels[d]); v != "" && !b.isRedacted(v) {
			e.Labels[d] = v
		}
	}

	e.Salary = b.measure(vals, b.slots.salary, &b.stats.RedactedSalary)
	e.Service = b.measure(vals, b.slots.service, &b.stats.RedactedService)
	e.Derive()
	return e, true
}

// measure parses an optional numeric field, counting non-empty fields that
// could not be used.
func (b *rowBuilder) measure(vals []string, slot int, redacted *int64) events.Value {
	if slot < 0 {
		return events.Absent()
	}
	raw := b.value(vals, slot)
	v := events.ParseValue(raw, b.redacted)
	if !v.IsPresent() && raw != "" {
		*redacted++
	}
	return v
}

// cancelled checks ctx every CancelCheckInterval rows.
func cancelled(ctx context.Context, rows int64) error {
	if rows%constants.CancelCheckInterval != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
