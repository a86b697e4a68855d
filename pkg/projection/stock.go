package projection

import (
	"github.com/agentstation/fedtrack/pkg/accumulator"
	"github.com/agentstation/fedtrack/pkg/authority"
	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Snapshot families read every table at the latest snapshot month only.

func (v *view) agencyList() []AgencySummary {
	list := []AgencySummary{}
	for code, b := range rolled(v.set.Table(accumulator.EmpAgency), v.snapshot, byEntity) {
		list = append(list, AgencySummary{Code: code, Name: v.agencyName(code), Employees: b.Count, AvgSalary: dollars(b)})
	}
	return TopN(list, 0)
}

func (v *view) agencies() []Artifact {
	list := v.agencyList()
	out := []Artifact{{Name: "agency-list.json", Value: list}}

	occupations := grouped(v.set.Table(accumulator.EmpAgencyOccupation), v.snapshot, byEntity, byFirst)
	states := grouped(v.set.Table(accumulator.EmpAgencyState), v.snapshot, byEntity, byFirst)
	education := grouped(v.set.Table(accumulator.EmpAgencyEducation), v.snapshot, byEntity, byFirst)

	detailed := list
	if v.agencyDetailLimit > 0 && len(detailed) > v.agencyDetailLimit {
		detailed = detailed[:v.agencyDetailLimit]
	}
	for _, a := range detailed {
		doc := AgencyDetail{
			AgencySummary:  a,
			TopOccupations: []NamedCount{},
			TopStates:      []StateCount{},
			Education:      []LevelCount{},
		}
		for occ, b := range occupations[a.Code] {
			doc.TopOccupations = append(doc.TopOccupations, NamedCount{
				Name: v.dimName(events.Occupation, occ), Count: b.Count, AvgSalary: dollars(b), code: occ,
			})
		}
		doc.TopOccupations = TopN(doc.TopOccupations, constants.DetailTopN)
		for st, b := range states[a.Code] {
			doc.TopStates = append(doc.TopStates, StateCount{Name: v.dimName(events.State, st), Code: st, Count: b.Count})
		}
		doc.TopStates = TopN(doc.TopStates, constants.DetailTopN)
		for level, b := range education[a.Code] {
			doc.Education = append(doc.Education, LevelCount{Level: level, Count: b.Count})
		}
		doc.Education = TopN(doc.Education, 0)
		out = append(out, Artifact{Name: "agencies/" + fileCode(a.Code) + ".json", Value: doc})
	}
	return out
}

// family returns the occupation family name recorded for an occupation.
func (v *view) family(occ string) string {
	name, _ := v.names.Name(authority.FamilyOf, occ)
	return name
}

func (v *view) occupationList() []OccupationSummary {
	list := []OccupationSummary{}
	for code, b := range rolled(v.set.Table(accumulator.EmpOccupation), v.snapshot, byFirst) {
		list = append(list, OccupationSummary{
			Code:      code,
			Name:      v.dimName(events.Occupation, code),
			Family:    v.family(code),
			Employees: b.Count,
			AvgSalary: dollars(b),
		})
	}
	return TopN(list, 0)
}

func (v *view) occupations() []Artifact {
	list := v.occupationList()
	out := []Artifact{
		{Name: "occupations.json", Value: list},
		{Name: "occupation-families.json", Value: v.occupationFamilies()},
	}

	agencies := grouped(v.set.Table(accumulator.EmpAgencyOccupation), v.snapshot, byFirst, byEntity)
	states := grouped(v.set.Table(accumulator.EmpStateOccupation), v.snapshot, bySecond, byFirst)
	ages := grouped(v.set.Table(accumulator.EmpOccupationAge), v.snapshot, byFirst, bySecond)
	edu := grouped(v.set.Table(accumulator.EmpOccupationEdu), v.snapshot, byFirst, bySecond)
	grades := grouped(v.set.Table(accumulator.EmpOccupationGrade), v.snapshot, byFirst, bySecond)

	for _, o := range list {
		if o.Employees < v.occupationDetailMin {
			continue
		}
		doc := OccupationDetail{
			Code:                  o.Code,
			Name:                  o.Name,
			Group:                 o.Family,
			Employees:             o.Employees,
			AvgSalary:             o.AvgSalary,
			TopAgencies:           []AgencyCount{},
			TopStates:             []StateOnlyCount{},
			AgeDistribution:       labelCounts(ages[o.Code]),
			EducationDistribution: labelCounts(edu[o.Code]),
			SalaryByGrade:         []GradeCount{},
		}
		for entity, b := range agencies[o.Code] {
			doc.TopAgencies = append(doc.TopAgencies, AgencyCount{Code: entity, Name: v.agencyName(entity), Count: b.Count, AvgSalary: dollars(b)})
		}
		doc.TopAgencies = TopN(doc.TopAgencies, constants.DetailTopN)
		for st, b := range states[o.Code] {
			doc.TopStates = append(doc.TopStates, StateOnlyCount{State: st, Count: b.Count})
		}
		doc.TopStates = TopN(doc.TopStates, constants.DetailTopN)
		for grade, b := range grades[o.Code] {
			doc.SalaryByGrade = append(doc.SalaryByGrade, GradeCount{Grade: grade, Count: b.Count, AvgSalary: dollars(b)})
		}
		doc.SalaryByGrade = TopN(doc.SalaryByGrade, constants.TopPaid)
		out = append(out, Artifact{Name: "occupation-detail/" + fileCode(o.Code) + ".json", Value: doc})
	}
	return out
}

func (v *view) occupationFamilies() []OccupationFamily {
	totals := rolled(v.set.Table(accumulator.EmpOccupation), v.snapshot, byFirst)
	members := make(map[string][]string)
	for code := range totals {
		fam := v.family(code)
		if fam == "" || fam == "Invalid" {
			continue
		}
		members[fam] = append(members[fam], code)
	}

	out := []OccupationFamily{}
	for _, fam := range sortedKeys(members) {
		var sum accumulator.Bucket
		occs := make([]OccupationSummary, 0, len(members[fam]))
		for _, code := range members[fam] {
			b := totals[code]
			sum.Merge(b)
			occs = append(occs, OccupationSummary{Code: code, Name: v.dimName(events.Occupation, code), Employees: b.Count, AvgSalary: dollars(b)})
		}
		occs = TopN(occs, 0)
		all := make([]FamilyOccupation, 0, len(occs))
		for _, o := range occs {
			all = append(all, FamilyOccupation{Code: o.Code, Name: o.Name, Employees: o.Employees, AvgSalary: o.AvgSalary})
		}
		top := all
		if len(top) > constants.FamilyTopOccupations {
			top = top[:constants.FamilyTopOccupations]
		}
		out = append(out, OccupationFamily{
			Slug:            authority.Slug(fam),
			Name:            fam,
			TotalEmployees:  sum.Count,
			AvgSalary:       dollars(sum),
			OccupationCount: len(all),
			TopOccupations:  top,
			AllOccupations:  all,
		})
	}
	return TopN(out, 0)
}

// nationalSalary is the weighted average salary over every reported state.
func nationalSalary(states map[string]accumulator.Bucket) *int64 {
	var sum accumulator.Bucket
	for code, b := range states {
		if code == constants.UnreportedState {
			continue
		}
		sum.Merge(b)
	}
	return dollars(sum)
}

func (v *view) states() []Artifact {
	buckets := rolled(v.set.Table(accumulator.EmpState), v.snapshot, byFirst)
	list := []StateSummary{}
	for code, b := range buckets {
		list = append(list, StateSummary{Code: code, Name: v.dimName(events.State, code), Employees: b.Count, AvgSalary: dollars(b)})
	}
	list = TopN(list, 0)
	out := []Artifact{{Name: "states.json", Value: list}}

	national := nationalSalary(buckets)
	agencies := grouped(v.set.Table(accumulator.EmpAgencyState), v.snapshot, byFirst, byEntity)
	occupations := grouped(v.set.Table(accumulator.EmpStateOccupation), v.snapshot, byFirst, bySecond)
	for _, s := range list {
		doc := StateDetail{
			StateSummary:      s,
			NationalAvgSalary: national,
			TopAgencies:       []AgencyEmployees{},
			TopOccupations:    []OccupationEmployees{},
		}
		if s.AvgSalary != nil && national != nil {
			doc.SalaryVsNational = percent(*s.AvgSalary-*national, *national)
		}
		for entity, b := range agencies[s.Code] {
			doc.TopAgencies = append(doc.TopAgencies, AgencyEmployees{Name: v.agencyName(entity), Code: entity, Employees: b.Count})
		}
		doc.TopAgencies = TopN(doc.TopAgencies, constants.DetailTopN)
		for occ, b := range occupations[s.Code] {
			doc.TopOccupations = append(doc.TopOccupations, OccupationEmployees{
				Name: v.dimName(events.Occupation, occ), Employees: b.Count, AvgSalary: dollars(b), code: occ,
			})
		}
		doc.TopOccupations = TopN(doc.TopOccupations, constants.DetailTopN)
		out = append(out, Artifact{Name: "state-detail/" + fileCode(s.Code) + ".json", Value: doc})
	}
	return out
}

// topPaid ranks by average salary the entries whose salaried sample is
// larger than minimum.
func topPaid(buckets map[string]accumulator.Bucket, minimum int64, name func(string) string) []PaidEntry {
	out := []PaidEntry{}
	for code, b := range buckets {
		if b.Salary.Weight <= minimum {
			continue
		}
		avg := dollars(b)
		if avg == nil {
			continue
		}
		out = append(out, PaidEntry{Code: code, Name: name(code), AvgSalary: *avg, Employees: b.Salary.Weight})
	}
	return TopN(out, constants.TopPaid)
}

func (v *view) salaryStats() []Artifact {
	brackets := rolled(v.set.Table(accumulator.EmpSalaryBracket), v.snapshot, byFirst)
	stats := SalaryStats{
		Distribution: []BracketCount{},
		ByGrade:      []GradeSalary{},
	}
	for _, label := range events.SalaryBrackets() {
		stats.Distribution = append(stats.Distribution, BracketCount{Bracket: label, Employees: brackets[label].Count})
	}

	stats.TopPaidAgencies = topPaid(
		rolled(v.set.Table(accumulator.EmpAgency), v.snapshot, byEntity),
		constants.TopPaidAgencyMinEmployees, v.agencyName)
	stats.TopPaidOccupations = topPaid(
		rolled(v.set.Table(accumulator.EmpOccupation), v.snapshot, byFirst),
		constants.TopPaidOccupationMinEmployees, func(code string) string { return v.dimName(events.Occupation, code) })

	grades := rolled(v.set.Table(accumulator.EmpGrade), v.snapshot, byFirst)
	for _, grade := range sortedKeys(grades) {
		if grade == "" {
			continue
		}
		avg := dollars(grades[grade])
		if avg == nil {
			continue
		}
		stats.ByGrade = append(stats.ByGrade, GradeSalary{Grade: grade, AvgSalary: *avg, Employees: grades[grade].Salary.Weight})
	}
	return []Artifact{{Name: "salary-stats.json", Value: stats}}
}
