// Package crosswalk maps sub-entity ids to parent entities.
//
// Older extracts identify organizations at the sub-agency level (for
// example "XY01") while newer ones report the parent ("XY"). The crosswalk
// table is loaded once per run and is read-only afterwards; lookups that
// miss are tallied so the run can report them instead of inventing an
// attribution.
package crosswalk

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strings"

	pkgerrors "github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/logging"
)

// Layout names the crosswalk columns.
type Layout struct {
	SubEntityField  string `yaml:"sub_entity_field" json:"subEntityField"`
	EntityField     string `yaml:"entity_field" json:"entityField"`
	EntityNameField string `yaml:"entity_name_field" json:"entityNameField"`
	Delimiter       string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	EntityWidth     int    `yaml:"entity_width,omitempty" json:"entityWidth,omitempty"`
	SubEntityWidth  int    `yaml:"sub_entity_width,omitempty" json:"subEntityWidth,omitempty"`
}

// DefaultLayout is the published agency translation table.
func DefaultLayout() Layout {
	return Layout{
		SubEntityField:  "AGYSUB",
		EntityField:     "AGY",
		EntityNameField: "AGYT",
		Delimiter:       ",",
		EntityWidth:     2,
		SubEntityWidth:  4,
	}
}

// Entry is the parent of a sub-entity.
type Entry struct {
	Entity string
	Name   string
}

// Resolver answers sub-entity lookups. The zero value resolves nothing.
type Resolver struct {
	entries map[string]Entry
	width   int
}

// Load reads a crosswalk table. Duplicate sub-entity rows keep the first.
func Load(ctx context.Context, name string, r io.Reader, layout Layout) (*Resolver, error) {
	delim := layout.Delimiter
	if delim == "" {
		delim = ","
	}
	reader := csv.NewReader(r)
	reader.Comma = []rune(delim)[0]
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pkgerrors.NewSchemaMismatchError(name, layout.SubEntityField, nil)
		}
		return nil, pkgerrors.WrapParse("csv", name, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		header[i] = h
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	index := func(field string) (int, error) {
		i, ok := cols[strings.ToUpper(field)]
		if !ok {
			return -1, pkgerrors.NewSchemaMismatchError(name, field, header)
		}
		return i, nil
	}
	subCol, err := index(layout.SubEntityField)
	if err != nil {
		return nil, err
	}
	entCol, err := index(layout.EntityField)
	if err != nil {
		return nil, err
	}
	nameCol := -1
	if layout.EntityNameField != "" {
		if nameCol, err = index(layout.EntityNameField); err != nil {
			return nil, err
		}
	}

	res := &Resolver{entries: make(map[string]Entry), width: layout.SubEntityWidth}
	dupes := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pkgerrors.WrapParse("csv", name, err)
		}
		field := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		sub := normalize(field(subCol), layout.SubEntityWidth)
		ent := normalize(field(entCol), layout.EntityWidth)
		if sub == "" || ent == "" {
			continue
		}
		if _, ok := res.entries[sub]; ok {
			dupes++
			continue
		}
		res.entries[sub] = Entry{Entity: ent, Name: field(nameCol)}
	}

	logging.FromContext(ctx).Debug().
		Str("crosswalk", name).
		Int("entries", len(res.entries)).
		Int("duplicates", dupes).
		Msg("crosswalk loaded")
	return res, nil
}

func normalize(id string, width int) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	if width > 0 && len(id) > width {
		id = id[:width]
	}
	return id
}

// Resolve returns the parent of sub.
func (r *Resolver) Resolve(sub string) (Entry, bool) {
	if r == nil || r.entries == nil {
		return Entry{}, false
	}
	e, ok := r.entries[normalize(sub, r.width)]
	return e, ok
}

// Len returns the number of sub-entities in the table.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Tally counts unresolved lookups: one per raw event, by sub-entity id.
type Tally struct {
	misses map[string]int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{misses: make(map[string]int64)}
}

// Miss records one unresolved event.
func (t *Tally) Miss(sub string) {
	t.misses[sub]++
}

// Merge folds other into t.
func (t *Tally) Merge(other *Tally) {
	for k, v := range other.misses {
		t.misses[k] += v
	}
}

// Events returns the number of unresolved events.
func (t *Tally) Events() int64 {
	var n int64
	for _, v := range t.misses {
		n += v
	}
	return n
}

// Warnings returns one warning per distinct sub-entity id, sorted by id.
func (t *Tally) Warnings() []pkgerrors.UnresolvedEntityWarning {
	ids := make([]string, 0, len(t.misses))
	for id := range t.misses {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]pkgerrors.UnresolvedEntityWarning, 0, len(ids))
	for _, id := range ids {
		out = append(out, pkgerrors.UnresolvedEntityWarning{SubEntity: id, Events: t.misses[id]})
	}
	return out
}
