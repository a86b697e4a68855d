package projection

import (
	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/events"
)

// rifRanking ranks agencies by reduction-in-force separations.
func (v *view) rifRanking() []RifAgency {
	out := []RifAgency{}
	rifs := rolled(v.set.Table(accumulator.SepAgencyMonthCat), func(k accumulator.Key) bool {
		return k.Values[0] == constants.RifCategory
	}, byEntity)
	for code, b := range rifs {
		if b.Count <= 0 {
			continue
		}
		out = append(out, RifAgency{Code: code, Name: v.agencyName(code), RifCount: b.Count})
	}
	return TopN(out, constants.RifTopList)
}

// quitRates ranks agencies by the share of their separations that were
// quits. Agencies at or below the separation minimum are not ranked.
func (v *view) quitRates() []QuitRate {
	seps, _ := v.entityTotals()
	quits := rolled(v.set.Table(accumulator.SepAgencyMonthCat), func(k accumulator.Key) bool {
		return k.Values[0] == constants.QuitCategory
	}, byEntity)

	out := []QuitRate{}
	for code, total := range seps {
		if total.Count <= v.quitRateMin {
			continue
		}
		q := quits[code].Count
		rate, ok := Rate(q, total.Count)
		if !ok {
			continue
		}
		out = append(out, QuitRate{
			Code:      code,
			Name:      v.agencyName(code),
			Quits:     q,
			TotalSeps: total.Count,
			QuitRate:  percent(q, total.Count),
			rate:      rate,
		})
	}
	return TopN(out, constants.TopQuitRates)
}

func (v *view) headline() []Artifact {
	rif := v.rifRanking()
	topRif := rif
	if len(topRif) > constants.TopRifAgencies {
		topRif = topRif[:constants.TopRifAgencies]
	}

	var employees accumulator.Bucket
	if t := v.set.Table(accumulator.EmpTotal); t != nil {
		employees = rolled(t, v.snapshot, func(accumulator.Key) string { return "" })[""]
	}
	stats := SiteStats{
		GeneratedAt:      v.at.Format("2006-01-02T15:04:05Z"),
		TotalEmployees:   employees.Count,
		AvgSalary:        dollars(employees),
		AgencyCount:      len(rolled(v.set.Table(accumulator.EmpAgency), v.snapshot, byEntity)),
		TotalSeparations: tableCount(v.set.Table(accumulator.SepMonth)),
		TotalAccessions:  tableCount(v.set.Table(accumulator.AccMonth)),
		TopRifAgencies:   topRif,
		TopQuitRates:     v.quitRates(),
	}
	if through := max(v.coverage.DataThrough(events.Separation), v.coverage.DataThrough(events.Accession)); through.Valid() {
		stats.DataThrough = through.String()
	}
	return []Artifact{
		{Name: "rif-top.json", Value: rif},
		{Name: "site-stats.json", Value: stats},
	}
}

func tableCount(t *accumulator.Table) int64 {
	if t == nil {
		return 0
	}
	return t.Total().Count
}
