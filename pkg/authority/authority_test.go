package authority_test

import (
	"testing"

	"github.com/agentstation/fedtrack/pkg/authority"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostRecentGenerationWins(t *testing.T) {
	b := authority.NewBook()
	b.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "OLD NAME", Rank: 1, Seq: 1})
	b.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "NEW NAME", Rank: 2, Seq: 9})
	b.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "OLDER AGAIN", Rank: 1, Seq: 0})
	b.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "", Rank: 3, Seq: 0})

	name, ok := b.Name(authority.Agency, "XY")
	require.True(t, ok)
	assert.Equal(t, "NEW NAME", name)
}

func TestFirstSeenBreaksTies(t *testing.T) {
	a := authority.NewBook()
	a.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "FIRST", Rank: 2, Seq: 10})
	b := authority.NewBook()
	b.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "SECOND", Rank: 2, Seq: 20})

	// merge order must not matter
	ab := authority.NewBook()
	ab.Merge(a)
	ab.Merge(b)
	ba := authority.NewBook()
	ba.Merge(b)
	ba.Merge(a)

	n1, _ := ab.Name(authority.Agency, "XY")
	n2, _ := ba.Name(authority.Agency, "XY")
	assert.Equal(t, "FIRST", n1)
	assert.Equal(t, n1, n2)
}

func TestSeedOnlyFillsGaps(t *testing.T) {
	b := authority.NewBook()
	b.Seed(authority.Agency, "XY", "SEEDED")
	b.Seed(authority.Agency, "ZZ", "ONLY SEED")
	b.Observe(authority.Sighting{Subject: authority.Agency, Code: "XY", Name: "REAL", Rank: 1, Seq: 5})

	n, _ := b.Name(authority.Agency, "XY")
	assert.Equal(t, "REAL", n)
	n, _ = b.Name(authority.Agency, "ZZ")
	assert.Equal(t, "ONLY SEED", n)
	assert.Equal(t, []string{"XY", "ZZ"}, b.Codes(authority.Agency))
}

func TestObserveEvent(t *testing.T) {
	e := events.Event{Entity: "XY", EntityName: "DEPARTMENT OF EXAMPLES", Rank: 3}
	e.Tags[events.Occupation] = "0905"
	e.Labels[events.Occupation] = "GENERAL ATTORNEY"
	e.Tags[events.OccupationFamily] = "LEGAL AND KINDRED"
	e.Tags[events.State] = "VA"

	b := authority.NewBook()
	b.ObserveEvent(&e, 1)

	assert.Equal(t, "Department of Examples", b.Display(authority.Agency, "XY"))
	assert.Equal(t, "General Attorney", b.Display(authority.DimensionSubject(events.Occupation), "0905"))
	fam, ok := b.Name(authority.FamilyOf, "0905")
	require.True(t, ok)
	assert.Equal(t, "LEGAL AND KINDRED", fam)
	assert.Equal(t, "VA", b.Display(authority.DimensionSubject(events.State), "VA"))
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"DEPARTMENT OF THE TREASURY":  "Department of the Treasury",
		"of mice AND men":             "Of Mice and Men",
		"  extra   spaces  ":          "Extra Spaces",
		"":                            "",
		"OFFICE FOR CIVIL RIGHTS, HQ": "Office for Civil Rights, Hq",
	}
	for in, want := range tests {
		assert.Equal(t, want, authority.TitleCase(in), in)
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "legal-and-kindred", authority.Slug("Legal and Kindred"))
	assert.Equal(t, "medical-hospital-dental", authority.Slug("  Medical, Hospital, Dental!! "))
	assert.Equal(t, "", authority.Slug("---"))
}
