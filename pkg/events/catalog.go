package events

import "github.com/agentstation/fedtrack/pkg/constants"

// SeparationCategory describes a separation category code.
type SeparationCategory struct {
	Code        string
	Name        string
	Description string
}

var separationCategories = []SeparationCategory{
	{"SA", "Transfer Out", "Employees who transferred to another federal agency"},
	{"SB", "Transfer Out (Mass)", "Mass transfers between agencies due to reorganization"},
	{"SC", "Quit", "Voluntary resignations from federal service"},
	{"SD", "Voluntary Retirement", "Standard voluntary retirements"},
	{"SE", "Early Retirement", "Early-out retirements, often offered during downsizing"},
	{"SF", "Disability Retirement", "Retirements due to disability"},
	{"SG", "Other Retirement", "Other types of retirement"},
	{"SH", "RIF", "Reduction in Force - involuntary separations due to budget/reorganization"},
	{"SJ", "Termination", "Involuntary terminations including probationary and for-cause"},
	{"SK", "Death", "Deaths of federal employees"},
	{"SL", "Other", "Other types of separations"},
}

// SeparationCategories returns the known categories ordered by code.
func SeparationCategories() []SeparationCategory {
	out := make([]SeparationCategory, len(separationCategories))
	copy(out, separationCategories)
	return out
}

// LookupCategory returns the category for code.
func LookupCategory(code string) (SeparationCategory, bool) {
	for _, c := range separationCategories {
		if c.Code == code {
			return c, true
		}
	}
	return SeparationCategory{}, false
}

// bracket upper bounds in whole dollars, exclusive
var bracketBounds = []struct {
	below uint64
	label string
}{
	{30000, "Under $30K"},
	{50000, "$30K-$50K"},
	{75000, "$50K-$75K"},
	{100000, "$75K-$100K"},
	{125000, "$100K-$125K"},
	{150000, "$125K-$150K"},
	{200000, "$150K-$200K"},
}

const topBracket = "$200K+"

// SalaryBrackets lists bracket labels from lowest to highest.
func SalaryBrackets() []string {
	out := make([]string, 0, len(bracketBounds)+1)
	for _, b := range bracketBounds {
		out = append(out, b.label)
	}
	return append(out, topBracket)
}

// BracketOf returns the salary bracket for a fixed-point salary.
func BracketOf(units uint64) string {
	for _, b := range bracketBounds {
		if units < b.below*constants.ValueScale {
			return b.label
		}
	}
	return topBracket
}
