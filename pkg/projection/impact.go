package projection

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// period is a same-months span of one calendar year: January through
// the month of year of the latest separation.
type period struct {
	year    int
	through int
}

func (p period) contains(m events.Month) bool {
	return m.Year() == p.year && int(m)%100 <= p.through
}

func (p period) prior() period {
	return period{year: p.year - 1, through: p.through}
}

// label renders the period as "Jan-Nov (2025 vs 2024)".
func (p period) label() string {
	return fmt.Sprintf("Jan-%s (%d vs %d)", time.Month(p.through).String()[:3], p.year, p.year-1)
}

// flowTotal sums a month table over the months p contains.
func flowTotal(t *accumulator.Table, p period) int64 {
	if t == nil {
		return 0
	}
	var n int64
	t.Each(func(k accumulator.Key, b accumulator.Bucket) {
		if p.contains(k.Month) {
			n += b.Count
		}
	})
	return n
}

// impact compares the year of the latest separation month against the same
// months of the year before, and breaks the year down by month and agency.
func (v *view) impact() []Artifact {
	doc := Impact{
		GeneratedAt:       v.at.Format("2006-01-02T15:04:05Z"),
		MonthlyBreakdown:  []TrendMonth{},
		TopAgenciesByLoss: []AgencyNet{},
		RifByAgency:       []RifAgency{},
		RifByYear:         map[string]int64{},
	}

	sepTable := v.set.Table(accumulator.SepMonth)
	accTable := v.set.Table(accumulator.AccMonth)
	catTable := v.set.Table(accumulator.SepAgencyMonthCat)
	rif := func(k accumulator.Key) bool { return k.Values[0] == constants.RifCategory }

	for year, b := range rolled(catTable, rif, func(k accumulator.Key) string { return fmt.Sprintf("%04d", k.Month.Year()) }) {
		doc.RifByYear[year] = b.Count
	}

	months := monthsOf(sepTable, nil)
	if len(months) == 0 {
		return []Artifact{{Name: "doge-impact.json", Value: doc}}
	}
	latest := months[len(months)-1]
	cur := period{year: latest.Year(), through: int(latest) % 100}
	prior := cur.prior()

	doc.Year = cur.year
	doc.ComparisonPeriod = cur.label()
	doc.Separations = flowTotal(sepTable, cur)
	doc.SeparationsPriorYear = flowTotal(sepTable, prior)
	doc.SeparationChange = doc.Separations - doc.SeparationsPriorYear
	doc.SeparationChangePct = percent(doc.SeparationChange, doc.SeparationsPriorYear)
	doc.Accessions = flowTotal(accTable, cur)
	doc.AccessionsPriorYear = flowTotal(accTable, prior)
	doc.AccessionChange = doc.Accessions - doc.AccessionsPriorYear
	doc.AccessionChangePct = percent(doc.AccessionChange, doc.AccessionsPriorYear)

	// The breakdown covers every month of the year, past the comparison months too.
	inYear := func(k accumulator.Key) bool { return k.Month.Year() == cur.year }
	sepByMonth := monthTotals(sepTable, inYear)
	accByMonth := monthTotals(accTable, inYear)
	var sepYear, accYear int64
	for _, m := range timeline.Axis(sortedKeys(sepByMonth), sortedKeys(accByMonth)) {
		s, a := sepByMonth[m].Count, accByMonth[m].Count
		sepYear += s
		accYear += a
		doc.MonthlyBreakdown = append(doc.MonthlyBreakdown, TrendMonth{Month: m.String(), Separations: s, Accessions: a, Net: NetChange(a, s)})
	}
	doc.NetChangeSinceJan = NetChange(accYear, sepYear)

	seps := rolled(v.set.Table(accumulator.SepAgencyMonth), inYear, byEntity)
	accs := rolled(v.set.Table(accumulator.AccAgencyMonth), inYear, byEntity)
	for _, code := range unionKeys(seps, accs) {
		s, a := seps[code].Count, accs[code].Count
		doc.TopAgenciesByLoss = append(doc.TopAgenciesByLoss, AgencyNet{
			Code:        code,
			Name:        v.agencyName(code),
			Separations: s,
			Accessions:  a,
			Net:         NetChange(a, s),
		})
	}
	slices.SortStableFunc(doc.TopAgenciesByLoss, func(a, b AgencyNet) int {
		return cmp.Or(cmp.Compare(a.Net, b.Net), cmp.Compare(a.Code, b.Code))
	})
	if len(doc.TopAgenciesByLoss) > constants.ImpactNetLoss {
		doc.TopAgenciesByLoss = doc.TopAgenciesByLoss[:constants.ImpactNetLoss]
	}

	rifs := rolled(catTable, func(k accumulator.Key) bool { return inYear(k) && rif(k) }, byEntity)
	for code, b := range rifs {
		if b.Count <= 0 {
			continue
		}
		doc.RifByAgency = append(doc.RifByAgency, RifAgency{Code: code, Name: v.agencyName(code), RifCount: b.Count})
	}
	doc.RifByAgency = TopN(doc.RifByAgency, constants.ImpactRifAgencies)

	return []Artifact{{Name: "doge-impact.json", Value: doc}}
}

// monthTotals rolls t up by month over the keys keep accepts.
func monthTotals(t *accumulator.Table, keep func(accumulator.Key) bool) map[events.Month]accumulator.Bucket {
	if t == nil {
		return map[events.Month]accumulator.Bucket{}
	}
	return accumulator.Rollup(t, func(k accumulator.Key) (events.Month, bool) {
		return k.Month, keep(k)
	})
}
