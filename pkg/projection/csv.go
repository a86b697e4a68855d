package projection

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/fedtrack/pkg/accumulator"
)

// Table is a CSV artifact: a header row followed by data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// MarshalArtifact encodes t as comma-separated values.
func (t Table) MarshalArtifact() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// exports are flat CSV copies of the agency, occupation and separation
// summaries.
func (v *view) exports() []Artifact {
	agencies := Table{Header: []string{"code", "name", "employees", "avg_salary"}, Rows: [][]string{}}
	for _, a := range v.agencyList() {
		agencies.Rows = append(agencies.Rows, []string{a.Code, a.Name, strconv.FormatInt(a.Employees, 10), optInt(a.AvgSalary)})
	}

	occupations := Table{Header: []string{"code", "name", "family", "employees", "avg_salary"}, Rows: [][]string{}}
	for _, o := range v.occupationList() {
		if strings.EqualFold(o.Name, "invalid") {
			continue
		}
		occupations.Rows = append(occupations.Rows, []string{o.Code, o.Name, o.Family, strconv.FormatInt(o.Employees, 10), optInt(o.AvgSalary)})
	}

	totals := rolled(v.set.Table(accumulator.SepMonthCategory), nil, byFirst)
	var grand int64
	for _, b := range totals {
		grand += b.Count
	}
	codes := slices.Clone(v.codes)
	slices.SortStableFunc(codes, func(a, b string) int {
		return cmp.Or(cmp.Compare(totals[b].Count, totals[a].Count), cmp.Compare(a, b))
	})
	separations := Table{Header: []string{"code", "type", "count", "percentage"}, Rows: [][]string{}}
	for _, code := range codes {
		n := totals[code].Count
		separations.Rows = append(separations.Rows, []string{code, categoryName(code), strconv.FormatInt(n, 10), optFloat(percent(n, grand))})
	}

	return []Artifact{
		{Name: "csv/agencies.csv", Value: agencies},
		{Name: "csv/occupations.csv", Value: occupations},
		{Name: "csv/separations.csv", Value: separations},
	}
}
