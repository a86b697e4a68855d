package projection

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// MonthCount is one point of a monthly series.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// CategoryMonth is one month of per-category counts. It encodes as a flat
// object: {"month": "202310", "SA": 1, "SB": 0, ...} with categories in a
// fixed order.
type CategoryMonth struct {
	Month  string
	Codes  []string
	Counts map[string]int64
}

// MarshalJSON implements json.Marshaler.
func (c CategoryMonth) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"month":`)
	buf.WriteString(strconv.Quote(c.Month))
	for _, code := range c.Codes {
		buf.WriteByte(',')
		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(c.Counts[code], 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AgencySummary is one row of agency-list.json.
type AgencySummary struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Employees int64  `json:"employees"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
}

func (a AgencySummary) RankMeasure() float64 { return float64(a.Employees) }
func (a AgencySummary) RankCode() string     { return a.Code }

// AgencyDetail is agencies/{code}.json.
type AgencyDetail struct {
	AgencySummary
	TopOccupations []NamedCount `json:"topOccupations"`
	TopStates      []StateCount `json:"topStates"`
	Education      []LevelCount `json:"education"`
}

// NamedCount is a named count with an optional average salary.
type NamedCount struct {
	Name      string `json:"name"`
	Count     int64  `json:"count"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
	code      string
}

func (n NamedCount) RankMeasure() float64 { return float64(n.Count) }
func (n NamedCount) RankCode() string     { return n.code }

// StateCount is a state with a count.
type StateCount struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

func (s StateCount) RankMeasure() float64 { return float64(s.Count) }
func (s StateCount) RankCode() string     { return s.Code }

// LevelCount is an education level with a count.
type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

func (l LevelCount) RankMeasure() float64 { return float64(l.Count) }
func (l LevelCount) RankCode() string     { return l.Level }

// AgencySeparations is agency-separations/{code}.json.
type AgencySeparations struct {
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Monthly          []CategoryMonth `json:"monthly"`
	TotalSeparations int64           `json:"totalSeparations"`
	TotalAccessions  int64           `json:"totalAccessions"`
	Net              int64           `json:"net"`
}

// Separations is separations.json.
type Separations struct {
	Types   map[string]string `json:"types"`
	Monthly []CategoryMonth   `json:"monthly"`
}

// TrendMonth is one month of trends.json.
type TrendMonth struct {
	Month       string `json:"month"`
	Separations int64  `json:"separations"`
	Accessions  int64  `json:"accessions"`
	Net         int64  `json:"net"`
}

// AgencyNet is one row of netByAgency.
type AgencyNet struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Separations int64  `json:"separations"`
	Accessions  int64  `json:"accessions"`
	Net         int64  `json:"net"`
}

// Trends is trends.json.
type Trends struct {
	Monthly     []TrendMonth `json:"monthly"`
	NetByAgency []AgencyNet  `json:"netByAgency"`
}

// OccupationSummary is one row of occupations.json.
type OccupationSummary struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Family    string `json:"family"`
	Employees int64  `json:"employees"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
}

func (o OccupationSummary) RankMeasure() float64 { return float64(o.Employees) }
func (o OccupationSummary) RankCode() string     { return o.Code }

// FamilyOccupation is an occupation listed under its family.
type FamilyOccupation struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Employees int64  `json:"employees"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
}

// OccupationFamily is one row of occupation-families.json.
type OccupationFamily struct {
	Slug            string             `json:"slug"`
	Name            string             `json:"name"`
	TotalEmployees  int64              `json:"totalEmployees"`
	AvgSalary       *int64             `json:"avgSalary,omitempty"`
	OccupationCount int                `json:"occupationCount"`
	TopOccupations  []FamilyOccupation `json:"topOccupations"`
	AllOccupations  []FamilyOccupation `json:"allOccupations"`
}

func (f OccupationFamily) RankMeasure() float64 { return float64(f.TotalEmployees) }
func (f OccupationFamily) RankCode() string     { return f.Slug }

// AgencyCount is an agency with a count and optional average salary.
type AgencyCount struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Count     int64  `json:"count"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
}

func (a AgencyCount) RankMeasure() float64 { return float64(a.Count) }
func (a AgencyCount) RankCode() string     { return a.Code }

// LabelCount is a labelled count.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

func (l LabelCount) RankMeasure() float64 { return float64(l.Count) }
func (l LabelCount) RankCode() string     { return l.Label }

// StateOnlyCount is a state code with a count.
type StateOnlyCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

func (s StateOnlyCount) RankMeasure() float64 { return float64(s.Count) }
func (s StateOnlyCount) RankCode() string     { return s.State }

// GradeCount is a grade with a count and optional average salary.
type GradeCount struct {
	Grade     string `json:"grade"`
	Count     int64  `json:"count"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
}

func (g GradeCount) RankMeasure() float64 { return float64(g.Count) }
func (g GradeCount) RankCode() string     { return g.Grade }

// OccupationDetail is occupation-detail/{code}.json.
type OccupationDetail struct {
	Code                  string           `json:"code"`
	Name                  string           `json:"name"`
	Group                 string           `json:"group"`
	Employees             int64            `json:"employees"`
	AvgSalary             *int64           `json:"avgSalary,omitempty"`
	TopAgencies           []AgencyCount    `json:"topAgencies"`
	TopStates             []StateOnlyCount `json:"topStates"`
	AgeDistribution       []LabelCount     `json:"ageDistribution"`
	EducationDistribution []LabelCount     `json:"educationDistribution"`
	SalaryByGrade         []GradeCount     `json:"salaryByGrade"`
}

// StateSummary is one row of states.json.
type StateSummary struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Employees int64  `json:"employees"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
}

func (s StateSummary) RankMeasure() float64 { return float64(s.Employees) }
func (s StateSummary) RankCode() string     { return s.Code }

// AgencyEmployees is an agency with a headcount.
type AgencyEmployees struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Employees int64  `json:"employees"`
}

func (a AgencyEmployees) RankMeasure() float64 { return float64(a.Employees) }
func (a AgencyEmployees) RankCode() string     { return a.Code }

// OccupationEmployees is an occupation with a headcount.
type OccupationEmployees struct {
	Name      string `json:"name"`
	Employees int64  `json:"employees"`
	AvgSalary *int64 `json:"avgSalary,omitempty"`
	code      string
}

func (o OccupationEmployees) RankMeasure() float64 { return float64(o.Employees) }
func (o OccupationEmployees) RankCode() string     { return o.code }

// StateDetail is state-detail/{code}.json. SalaryVsNational is the
// percentage by which the state average is above or below the national one.
type StateDetail struct {
	StateSummary
	NationalAvgSalary *int64                `json:"nationalAvgSalary,omitempty"`
	SalaryVsNational  *float64              `json:"salaryVsNational,omitempty"`
	TopAgencies       []AgencyEmployees     `json:"topAgencies"`
	TopOccupations    []OccupationEmployees `json:"topOccupations"`
}

// BracketCount is one salary bracket.
type BracketCount struct {
	Bracket   string `json:"bracket"`
	Employees int64  `json:"employees"`
}

// PaidEntry ranks by average salary; Employees counts salaried employees.
type PaidEntry struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	AvgSalary int64  `json:"avgSalary"`
	Employees int64  `json:"employees"`
}

func (p PaidEntry) RankMeasure() float64 { return float64(p.AvgSalary) }
func (p PaidEntry) RankCode() string     { return p.Code }

// GradeSalary is one row of byGrade.
type GradeSalary struct {
	Grade     string `json:"grade"`
	AvgSalary int64  `json:"avgSalary"`
	Employees int64  `json:"employees"`
}

// SalaryStats is salary-stats.json.
type SalaryStats struct {
	Distribution       []BracketCount `json:"distribution"`
	TopPaidAgencies    []PaidEntry    `json:"topPaidAgencies"`
	TopPaidOccupations []PaidEntry    `json:"topPaidOccupations"`
	ByGrade            []GradeSalary  `json:"byGrade"`
}

// RifAgency is one row of rif-top.json.
type RifAgency struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	RifCount int64  `json:"rifCount"`
}

func (r RifAgency) RankMeasure() float64 { return float64(r.RifCount) }
func (r RifAgency) RankCode() string     { return r.Code }

// QuitRate is one row of topQuitRates.
type QuitRate struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Quits     int64    `json:"quits"`
	TotalSeps int64    `json:"totalSeps"`
	QuitRate  *float64 `json:"quitRate,omitempty"`
	rate      float64
}

func (q QuitRate) RankMeasure() float64 { return q.rate }
func (q QuitRate) RankCode() string     { return q.Code }

// SiteStats is site-stats.json. GeneratedAt is the only field that changes
// between runs over identical inputs.
type SiteStats struct {
	GeneratedAt      string      `json:"generatedAt"`
	TotalEmployees   int64       `json:"totalEmployees"`
	AvgSalary        *int64      `json:"avgSalary,omitempty"`
	AgencyCount      int         `json:"agencyCount"`
	TotalSeparations int64       `json:"totalSeparations"`
	TotalAccessions  int64       `json:"totalAccessions"`
	DataThrough      string      `json:"dataThrough,omitempty"`
	TopRifAgencies   []RifAgency `json:"topRifAgencies"`
	TopQuitRates     []QuitRate  `json:"topQuitRates"`
}

// SeparationType is separation-types/{code}.json.
type SeparationType struct {
	Code                  string        `json:"code"`
	Name                  string        `json:"name"`
	Description           string        `json:"description"`
	TotalCount            int64         `json:"totalCount"`
	MonthlyTrend          []MonthCount  `json:"monthlyTrend"`
	TopAgencies           []AgencyCount `json:"topAgencies"`
	TopOccupations        []NamedCount  `json:"topOccupations"`
	ByAge                 []LabelCount  `json:"byAge"`
	AvgSalaryAtSeparation *int64        `json:"avgSalaryAtSeparation,omitempty"`
	AvgLOS                *float64      `json:"avgLOS,omitempty"`
}

// Impact is doge-impact.json. Counts without a suffix cover January
// through the latest separation month of Year; the PriorYear counts cover
// the same months one year earlier.
type Impact struct {
	GeneratedAt          string           `json:"generatedAt"`
	Year                 int              `json:"year,omitempty"`
	ComparisonPeriod     string           `json:"comparisonPeriod,omitempty"`
	Separations          int64            `json:"separations"`
	SeparationsPriorYear int64            `json:"separationsPriorYear"`
	SeparationChange     int64            `json:"separationChange"`
	SeparationChangePct  *float64         `json:"separationChangePct,omitempty"`
	Accessions           int64            `json:"accessions"`
	AccessionsPriorYear  int64            `json:"accessionsPriorYear"`
	AccessionChange      int64            `json:"accessionChange"`
	AccessionChangePct   *float64         `json:"accessionChangePct,omitempty"`
	NetChangeSinceJan    int64            `json:"netChangeSinceJan"`
	MonthlyBreakdown     []TrendMonth     `json:"monthlyBreakdown"`
	TopAgenciesByLoss    []AgencyNet      `json:"topAgenciesByNetLoss"`
	RifByAgency          []RifAgency      `json:"rifByAgency"`
	RifByYear            map[string]int64 `json:"rifByYear"`
}
