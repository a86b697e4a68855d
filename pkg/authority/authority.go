// Package authority decides which display name wins when several source
// generations name the same entity or code differently.
//
// The rule is "most recent generation wins": a non-empty name seen in a
// higher-ranked generation replaces one from a lower rank, and among equal
// ranks the first sighting stands. Sightings carry a sequence number derived
// from manifest order and row order, so the outcome does not depend on the
// order in which parallel readers deliver them.
package authority

import (
	"math"
	"slices"
	"strings"

	"github.com/agentstation/fedtrack/pkg/events"
)

// Subject is the namespace a code lives in.
type Subject string

// Agency is the subject for entity ids.
const Agency Subject = "agency"

// FamilyOf maps an occupation code to its family name.
const FamilyOf Subject = "family_of"

// SeedRank is the rank given to names from a prior run's listing. Any
// generation outranks it.
const SeedRank = math.MinInt

// DimensionSubject returns the subject for a dimension's codes.
func DimensionSubject(d events.Dimension) Subject {
	return Subject(d.String())
}

// Authority resolves display names.
type Authority interface {
	// Name returns the winning name for code, if any generation named it.
	Name(subject Subject, code string) (string, bool)
}

// Sighting is one source naming a code.
type Sighting struct {
	Subject Subject
	Code    string
	Name    string
	Rank    int
	Seq     int64
}

type key struct {
	subject Subject
	code    string
}

type claim struct {
	name string
	rank int
	seq  int64
}

func (c claim) beats(other claim) bool {
	if c.rank != other.rank {
		return c.rank > other.rank
	}
	return c.seq < other.seq
}

// Book collects sightings. It is not safe for concurrent use; parallel
// readers keep one Book each and Merge them afterwards.
type Book struct {
	claims map[key]claim
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{claims: make(map[key]claim)}
}

// Observe records a sighting. Empty names are ignored.
func (b *Book) Observe(s Sighting) {
	name := strings.TrimSpace(s.Name)
	if name == "" || s.Code == "" {
		return
	}
	b.put(key{s.Subject, s.Code}, claim{name: name, rank: s.Rank, seq: s.Seq})
}

// ObserveEvent records the entity name and every labelled dimension of e.
func (b *Book) ObserveEvent(e *events.Event, seq int64) {
	if e.Entity != "" {
		b.Observe(Sighting{Subject: Agency, Code: e.Entity, Name: e.EntityName, Rank: e.Rank, Seq: seq})
	}
	for d := range events.NumDimensions {
		if code := e.Tags[d]; code != "" {
			name := e.Labels[d]
			if name == "" && d == events.OccupationFamily {
				name = code
			}
			b.Observe(Sighting{Subject: DimensionSubject(d), Code: code, Name: name, Rank: e.Rank, Seq: seq})
		}
	}
	if occ, fam := e.Tags[events.Occupation], e.Tags[events.OccupationFamily]; occ != "" && fam != "" {
		b.Observe(Sighting{Subject: FamilyOf, Code: occ, Name: fam, Rank: e.Rank, Seq: seq})
	}
}

// Seed records a name at the lowest rank.
func (b *Book) Seed(subject Subject, code, name string) {
	b.Observe(Sighting{Subject: subject, Code: code, Name: name, Rank: SeedRank, Seq: math.MaxInt64})
}

func (b *Book) put(k key, c claim) {
	if cur, ok := b.claims[k]; ok && !c.beats(cur) {
		return
	}
	b.claims[k] = c
}

// Merge folds other into b.
func (b *Book) Merge(other *Book) {
	for k, c := range other.claims {
		b.put(k, c)
	}
}

// Name implements Authority.
func (b *Book) Name(subject Subject, code string) (string, bool) {
	c, ok := b.claims[key{subject, code}]
	return c.name, ok
}

// Display returns the title-cased winning name, or code when none exists.
func (b *Book) Display(subject Subject, code string) string {
	if name, ok := b.Name(subject, code); ok {
		return TitleCase(name)
	}
	return code
}

// Codes returns every named code of subject in sorted order.
func (b *Book) Codes(subject Subject) []string {
	var out []string
	for k := range b.claims {
		if k.subject == subject {
			out = append(out, k.code)
		}
	}
	slices.Sort(out)
	return out
}

// Len returns the number of named codes across subjects.
func (b *Book) Len() int {
	return len(b.claims)
}
