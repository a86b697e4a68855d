package accumulator

import (
	"fmt"
	"slices"

	"github.com/agentstation/fedtrack/pkg/events"
)

// Table names of the default shape set.
const (
	SepMonth              = "sep_month"
	SepMonthCategory      = "sep_month_category"
	SepAgencyMonth        = "sep_agency_month"
	SepAgencyMonthCat     = "sep_agency_month_category"
	SepCategoryOccupation = "sep_category_occupation"
	SepCategoryAge        = "sep_category_age"

	AccMonth       = "acc_month"
	AccAgencyMonth = "acc_agency_month"

	EmpTotal            = "emp_total"
	EmpAgency           = "emp_agency"
	EmpAgencyOccupation = "emp_agency_occupation"
	EmpAgencyState      = "emp_agency_state"
	EmpAgencyEducation  = "emp_agency_education"
	EmpOccupation       = "emp_occupation"
	EmpOccupationAge    = "emp_occupation_age"
	EmpOccupationEdu    = "emp_occupation_education"
	EmpOccupationGrade  = "emp_occupation_grade"
	EmpState            = "emp_state"
	EmpStateOccupation  = "emp_state_occupation"
	EmpGrade            = "emp_grade"
	EmpSalaryBracket    = "emp_salary_bracket"
)

// DefaultShapes returns the tables every projection draws from.
func DefaultShapes() []Shape {
	d := func(dims ...events.Dimension) []events.Dimension { return dims }
	return []Shape{
		{SepMonth, events.Separation, Global, nil},
		{SepMonthCategory, events.Separation, Global, d(events.Category)},
		{SepAgencyMonth, events.Separation, PerEntity, nil},
		{SepAgencyMonthCat, events.Separation, PerEntity, d(events.Category)},
		{SepCategoryOccupation, events.Separation, Global, d(events.Category, events.Occupation)},
		{SepCategoryAge, events.Separation, Global, d(events.Category, events.AgeBracket)},

		{AccMonth, events.Accession, Global, nil},
		{AccAgencyMonth, events.Accession, PerEntity, nil},

		{EmpTotal, events.Snapshot, Global, nil},
		{EmpAgency, events.Snapshot, PerEntity, nil},
		{EmpAgencyOccupation, events.Snapshot, PerEntity, d(events.Occupation)},
		{EmpAgencyState, events.Snapshot, PerEntity, d(events.State)},
		{EmpAgencyEducation, events.Snapshot, PerEntity, d(events.Education)},
		{EmpOccupation, events.Snapshot, Global, d(events.Occupation)},
		{EmpOccupationAge, events.Snapshot, Global, d(events.Occupation, events.AgeBracket)},
		{EmpOccupationEdu, events.Snapshot, Global, d(events.Occupation, events.Education)},
		{EmpOccupationGrade, events.Snapshot, Global, d(events.Occupation, events.Grade)},
		{EmpState, events.Snapshot, Global, d(events.State)},
		{EmpStateOccupation, events.Snapshot, Global, d(events.State, events.Occupation)},
		{EmpGrade, events.Snapshot, Global, d(events.Grade)},
		{EmpSalaryBracket, events.Snapshot, Global, d(events.SalaryBracket)},
	}
}

// Skip reasons reported by Set.Add.
const (
	SkipNoEntity         = "no_entity"
	SkipMissingDimension = "missing_dimension"
)

// Set is the collection of tables of one run, or of one partition of a run.
type Set struct {
	shapes  []Shape
	tables  map[string]*Table
	byType  map[events.Type][]*Table
	skipped map[string]map[string]int64
}

// NewSet creates empty tables for shapes.
func NewSet(shapes []Shape) (*Set, error) {
	s := &Set{
		shapes:  slices.Clone(shapes),
		tables:  make(map[string]*Table, len(shapes)),
		byType:  make(map[events.Type][]*Table),
		skipped: make(map[string]map[string]int64),
	}
	for _, sh := range shapes {
		if err := sh.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.tables[sh.Name]; dup {
			return nil, fmt.Errorf("duplicate shape %s", sh.Name)
		}
		t := NewTable(sh)
		s.tables[sh.Name] = t
		s.byType[sh.Type] = append(s.byType[sh.Type], t)
	}
	return s, nil
}

// MustDefault returns a set of DefaultShapes.
func MustDefault() *Set {
	s, err := NewSet(DefaultShapes())
	if err != nil {
		panic(err)
	}
	return s
}

// Fresh returns an empty set with the same shapes.
func (s *Set) Fresh() *Set {
	fresh, _ := NewSet(s.shapes)
	return fresh
}

// Add folds e into every table of its type. Tables e cannot be keyed in
// are skipped and the reason counted per table.
func (s *Set) Add(e *events.Event) {
	for _, t := range s.byType[e.Type] {
		if t.Add(e) {
			continue
		}
		reason := SkipMissingDimension
		if t.shape.Scope == PerEntity && e.Entity == "" {
			reason = SkipNoEntity
		}
		s.skip(t.shape.Name, reason, 1)
	}
}

func (s *Set) skip(table, reason string, n int64) {
	m, ok := s.skipped[table]
	if !ok {
		m = make(map[string]int64)
		s.skipped[table] = m
	}
	m[reason] += n
}

// Merge folds other into s. Both sets must share shapes.
func (s *Set) Merge(other *Set) {
	for name, t := range other.tables {
		if mine, ok := s.tables[name]; ok {
			mine.Merge(t)
		}
	}
	for table, reasons := range other.skipped {
		for reason, n := range reasons {
			s.skip(table, reason, n)
		}
	}
}

// Table returns a table by name.
func (s *Set) Table(name string) *Table {
	return s.tables[name]
}

// Shapes returns the shapes of s in declaration order.
func (s *Set) Shapes() []Shape {
	return slices.Clone(s.shapes)
}

// Skipped returns skip counts by table and reason.
func (s *Set) Skipped() map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(s.skipped))
	for table, reasons := range s.skipped {
		cp := make(map[string]int64, len(reasons))
		for r, n := range reasons {
			cp[r] = n
		}
		out[table] = cp
	}
	return out
}

// Months returns the sorted distinct months present in tables of type t.
func (s *Set) Months(t events.Type) []events.Month {
	seen := make(map[events.Month]struct{})
	for _, tbl := range s.byType[t] {
		for k := range tbl.buckets {
			seen[k.Month] = struct{}{}
		}
	}
	months := make([]events.Month, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	slices.Sort(months)
	return months
}
