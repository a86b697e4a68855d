package accumulator

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

// MaxDims is the largest number of dimensions a shape may group by.
const MaxDims = 3

// Scope says whether a table is keyed by entity.
type Scope int

// Scopes.
const (
	Global Scope = iota
	PerEntity
)

// Shape declares a table.
type Shape struct {
	Name  string
	Type  events.Type
	Scope Scope
	Dims  []events.Dimension
}

// Validate checks the shape.
func (s Shape) Validate() error {
	if s.Name == "" {
		return errors.NewValidationError("name", s.Name, "shape name is required")
	}
	if !s.Type.Valid() {
		return errors.NewValidationError("type", s.Type, fmt.Sprintf("shape %s: unknown event type", s.Name))
	}
	if len(s.Dims) > MaxDims {
		return errors.NewValidationError("dims", len(s.Dims), fmt.Sprintf("shape %s: at most %d dimensions", s.Name, MaxDims))
	}
	return nil
}

// Key addresses one bucket. Unused positions are empty.
type Key struct {
	Entity string
	Month  events.Month
	Values [MaxDims]string
}

// Compare orders keys by entity, month, then values.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Entity, o.Entity); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Month, o.Month); c != 0 {
		return c
	}
	for i := range k.Values {
		if c := cmp.Compare(k.Values[i], o.Values[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Table is a map of buckets for one shape. It is not safe for concurrent
// use.
type Table struct {
	shape   Shape
	buckets map[Key]*Bucket
}

// NewTable creates an empty table.
func NewTable(shape Shape) *Table {
	return &Table{shape: shape, buckets: make(map[Key]*Bucket)}
}

// Shape returns the table's declaration.
func (t *Table) Shape() Shape { return t.shape }

// KeyOf returns the key of e in t, or false when e does not belong.
func (t *Table) KeyOf(e *events.Event) (Key, bool) {
	if e.Type != t.shape.Type {
		return Key{}, false
	}
	k := Key{Month: e.Month}
	if t.shape.Scope == PerEntity {
		if e.Entity == "" {
			return Key{}, false
		}
		k.Entity = e.Entity
	}
	for i, d := range t.shape.Dims {
		v := e.Tags[d]
		if v == "" {
			return Key{}, false
		}
		k.Values[i] = v
	}
	return k, true
}

// Add folds e into its bucket. It reports false when e does not belong.
func (t *Table) Add(e *events.Event) bool {
	k, ok := t.KeyOf(e)
	if !ok {
		return false
	}
	t.add(k, e)
	return true
}

func (t *Table) add(k Key, e *events.Event) {
	b, ok := t.buckets[k]
	if !ok {
		b = &Bucket{}
		t.buckets[k] = b
	}
	b.Add(e)
}

// Merge folds other into t.
func (t *Table) Merge(other *Table) {
	for k, ob := range other.buckets {
		b, ok := t.buckets[k]
		if !ok {
			b = &Bucket{}
			t.buckets[k] = b
		}
		b.Merge(*ob)
	}
}

// Get returns a copy of the bucket at k.
func (t *Table) Get(k Key) (Bucket, bool) {
	b, ok := t.buckets[k]
	if !ok {
		return Bucket{}, false
	}
	return *b, true
}

// Len returns the number of buckets.
func (t *Table) Len() int { return len(t.buckets) }

// Keys returns every key in sorted order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.buckets))
	for k := range t.buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// Each calls fn for every bucket in key order.
func (t *Table) Each(fn func(Key, Bucket)) {
	for _, k := range t.Keys() {
		fn(k, *t.buckets[k])
	}
}

// Total returns the merge of every bucket.
func (t *Table) Total() Bucket {
	var total Bucket
	for _, b := range t.buckets {
		total.Merge(*b)
	}
	return total
}

// Rollup regroups t's buckets under a coarser key. Keys for which keyFn
// returns false are dropped. This is the one grouping primitive every
// projection is built from.
func Rollup[K comparable](t *Table, keyFn func(Key) (K, bool)) map[K]Bucket {
	out := make(map[K]Bucket)
	for k, b := range t.buckets {
		nk, ok := keyFn(k)
		if !ok {
			continue
		}
		agg := out[nk]
		agg.Merge(*b)
		out[nk] = agg
	}
	return out
}
