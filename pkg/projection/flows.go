package projection

import (
	"cmp"
	"slices"

	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/timeline"
)

// categoryCodes returns the catalog codes followed by any other observed
// codes in ascending order.
func (v *view) categoryCodes() []string {
	var codes []string
	known := make(map[string]bool)
	for _, c := range events.SeparationCategories() {
		codes = append(codes, c.Code)
		known[c.Code] = true
	}
	var extra []string
	for code := range rolled(v.set.Table(accumulator.SepMonthCategory), nil, byFirst) {
		if !known[code] {
			extra = append(extra, code)
		}
	}
	slices.Sort(extra)
	return append(codes, extra...)
}

func categoryName(code string) string {
	if c, ok := events.LookupCategory(code); ok {
		return c.Name
	}
	return code
}

// categoryMonths builds zero-filled per-category rows for the given months.
func (v *view) categoryMonths(months []events.Month, counts map[events.Month]map[string]int64) []CategoryMonth {
	out := make([]CategoryMonth, 0, len(months))
	for _, m := range months {
		row := CategoryMonth{Month: m.String(), Codes: v.codes, Counts: counts[m]}
		if row.Counts == nil {
			row.Counts = map[string]int64{}
		}
		out = append(out, row)
	}
	return out
}

func monthsOf(t *accumulator.Table, keep func(accumulator.Key) bool) []events.Month {
	if t == nil {
		return nil
	}
	set := accumulator.Rollup(t, func(k accumulator.Key) (events.Month, bool) {
		return k.Month, keep == nil || keep(k)
	})
	return sortedKeys(set)
}

func categoryCounts(t *accumulator.Table, keep func(accumulator.Key) bool) map[events.Month]map[string]int64 {
	out := make(map[events.Month]map[string]int64)
	if t == nil {
		return out
	}
	t.Each(func(k accumulator.Key, b accumulator.Bucket) {
		if keep != nil && !keep(k) {
			return
		}
		m, ok := out[k.Month]
		if !ok {
			m = make(map[string]int64)
			out[k.Month] = m
		}
		m[k.Values[0]] += b.Count
	})
	return out
}

func (v *view) separations() []Artifact {
	types := make(map[string]string, len(v.codes))
	for _, code := range v.codes {
		types[code] = categoryName(code)
	}
	months := monthsOf(v.set.Table(accumulator.SepMonth), nil)
	counts := categoryCounts(v.set.Table(accumulator.SepMonthCategory), nil)
	return []Artifact{{
		Name:  "separations.json",
		Value: Separations{Types: types, Monthly: v.categoryMonths(months, counts)},
	}}
}

// entityTotals returns finalized separation and accession totals per entity.
func (v *view) entityTotals() (seps, accs map[string]accumulator.Bucket) {
	seps = rolled(v.set.Table(accumulator.SepAgencyMonth), nil, byEntity)
	accs = rolled(v.set.Table(accumulator.AccAgencyMonth), nil, byEntity)
	return seps, accs
}

func (v *view) trends() []Artifact {
	sepTable := v.set.Table(accumulator.SepMonth)
	accTable := v.set.Table(accumulator.AccMonth)
	sepByMonth := MonthlyTrend(sepTable, nil)
	accByMonth := MonthlyTrend(accTable, nil)

	sepCount := make(map[string]int64, len(sepByMonth))
	for _, mc := range sepByMonth {
		sepCount[mc.Month] = mc.Count
	}
	accCount := make(map[string]int64, len(accByMonth))
	for _, mc := range accByMonth {
		accCount[mc.Month] = mc.Count
	}

	var trends Trends
	for _, m := range v.flowAxis() {
		key := m.String()
		s, a := sepCount[key], accCount[key]
		trends.Monthly = append(trends.Monthly, TrendMonth{Month: key, Separations: s, Accessions: a, Net: NetChange(a, s)})
	}

	seps, accs := v.entityTotals()
	for _, code := range unionKeys(seps, accs) {
		s, a := seps[code].Count, accs[code].Count
		trends.NetByAgency = append(trends.NetByAgency, AgencyNet{
			Code:        code,
			Name:        v.agencyName(code),
			Separations: s,
			Accessions:  a,
			Net:         NetChange(a, s),
		})
	}
	slices.SortStableFunc(trends.NetByAgency, func(a, b AgencyNet) int {
		return cmp.Or(cmp.Compare(a.Net, b.Net), cmp.Compare(a.Code, b.Code))
	})
	if trends.Monthly == nil {
		trends.Monthly = []TrendMonth{}
	}
	if trends.NetByAgency == nil {
		trends.NetByAgency = []AgencyNet{}
	}
	return []Artifact{{Name: "trends.json", Value: trends}}
}

// flowAxis is the sparse month axis of separations and accessions.
func (v *view) flowAxis() []events.Month {
	return timeline.Axis(
		monthsOf(v.set.Table(accumulator.SepMonth), nil),
		monthsOf(v.set.Table(accumulator.AccMonth), nil),
	)
}

func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	return sortedKeys(seen)
}

func (v *view) agencySeparations() []Artifact {
	seps, accs := v.entityTotals()
	sepTable := v.set.Table(accumulator.SepAgencyMonth)
	catTable := v.set.Table(accumulator.SepAgencyMonthCat)

	monthsByEntity := make(map[string][]events.Month)
	if sepTable != nil {
		sepTable.Each(func(k accumulator.Key, _ accumulator.Bucket) {
			monthsByEntity[k.Entity] = append(monthsByEntity[k.Entity], k.Month)
		})
	}
	countsByEntity := make(map[string]map[events.Month]map[string]int64)
	if catTable != nil {
		catTable.Each(func(k accumulator.Key, b accumulator.Bucket) {
			byMonth, ok := countsByEntity[k.Entity]
			if !ok {
				byMonth = make(map[events.Month]map[string]int64)
				countsByEntity[k.Entity] = byMonth
			}
			m, ok := byMonth[k.Month]
			if !ok {
				m = make(map[string]int64)
				byMonth[k.Month] = m
			}
			m[k.Values[0]] += b.Count
		})
	}

	var out []Artifact
	for _, code := range unionKeys(seps, accs) {
		s, a := seps[code].Count, accs[code].Count
		out = append(out, Artifact{
			Name: "agency-separations/" + fileCode(code) + ".json",
			Value: AgencySeparations{
				Code:             code,
				Name:             v.agencyName(code),
				Monthly:          v.categoryMonths(timeline.Axis(monthsByEntity[code]), countsByEntity[code]),
				TotalSeparations: s,
				TotalAccessions:  a,
				Net:              NetChange(a, s),
			},
		})
	}
	return out
}

func (v *view) separationTypes() []Artifact {
	byCat := rolled(v.set.Table(accumulator.SepMonthCategory), nil, byFirst)
	agencies := grouped(v.set.Table(accumulator.SepAgencyMonthCat), nil, byFirst, byEntity)
	occupations := grouped(v.set.Table(accumulator.SepCategoryOccupation), nil, byFirst, bySecond)
	ages := grouped(v.set.Table(accumulator.SepCategoryAge), nil, byFirst, bySecond)

	var out []Artifact
	for _, code := range v.codes {
		total, ok := byCat[code]
		if !ok {
			continue
		}
		doc := SeparationType{
			Code:       code,
			Name:       categoryName(code),
			TotalCount: total.Count,
			MonthlyTrend: MonthlyTrend(v.set.Table(accumulator.SepMonthCategory), func(k accumulator.Key) bool {
				return k.Values[0] == code
			}),
			AvgSalaryAtSeparation: dollars(total),
			AvgLOS:                years(total),
		}
		if c, ok := events.LookupCategory(code); ok {
			doc.Description = c.Description
		}

		doc.TopAgencies = []AgencyCount{}
		for entity, b := range agencies[code] {
			doc.TopAgencies = append(doc.TopAgencies, AgencyCount{Code: entity, Name: v.agencyName(entity), Count: b.Count})
		}
		doc.TopAgencies = TopN(doc.TopAgencies, constants.SeparationTypeTopN)

		doc.TopOccupations = []NamedCount{}
		for occ, b := range occupations[code] {
			doc.TopOccupations = append(doc.TopOccupations, NamedCount{Name: v.dimName(events.Occupation, occ), Count: b.Count, code: occ})
		}
		doc.TopOccupations = TopN(doc.TopOccupations, constants.SeparationTypeTopN)

		doc.ByAge = labelCounts(ages[code])
		out = append(out, Artifact{Name: "separation-types/" + fileCode(code) + ".json", Value: doc})
	}
	return out
}

// labelCounts lists buckets by label in ascending order.
func labelCounts(m map[string]accumulator.Bucket) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for _, label := range sortedKeys(m) {
		out = append(out, LabelCount{Label: label, Count: m[label].Count})
	}
	return out
}
