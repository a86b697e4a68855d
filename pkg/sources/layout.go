package sources

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

// Format is the physical encoding of a source file.
type Format string

// Supported formats.
const (
	Delimited Format = "delimited"
	JSONLines Format = "jsonl"
)

// Layout declares how the columns of one source generation map onto the
// canonical event. Layouts are data: the built-in set can be extended or
// overridden from the run manifest.
type Layout struct {
	Name      string      `yaml:"name" json:"name"`
	EventType events.Type `yaml:"event_type" json:"eventType"`
	Format    Format      `yaml:"format" json:"format"`
	Delimiter string      `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`

	// Exactly one month source applies: MonthField, MonthPattern (matched
	// against the file base name), or a fixed month supplied per source.
	MonthField   string `yaml:"month_field,omitempty" json:"monthField,omitempty"`
	MonthPattern string `yaml:"month_pattern,omitempty" json:"monthPattern,omitempty"`

	EntityField     string `yaml:"entity_field,omitempty" json:"entityField,omitempty"`
	EntityNameField string `yaml:"entity_name_field,omitempty" json:"entityNameField,omitempty"`
	EntityWidth     int    `yaml:"entity_width,omitempty" json:"entityWidth,omitempty"`
	SubEntityField  string `yaml:"sub_entity_field,omitempty" json:"subEntityField,omitempty"`
	SubEntityWidth  int    `yaml:"sub_entity_width,omitempty" json:"subEntityWidth,omitempty"`

	CountField   string `yaml:"count_field" json:"countField"`
	SalaryField  string `yaml:"salary_field,omitempty" json:"salaryField,omitempty"`
	ServiceField string `yaml:"service_field,omitempty" json:"serviceField,omitempty"`

	// Dimensions and Labels map a dimension name to a column.
	Dimensions map[string]string `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Labels     map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// Required lists columns beyond month, entity and count that must be
	// present in the header.
	Required []string `yaml:"required,omitempty" json:"required,omitempty"`

	// Redacted lists tokens that mean "value withheld".
	Redacted []string `yaml:"redacted,omitempty" json:"redacted,omitempty"`
}

// Validate checks that the layout is usable.
func (l *Layout) Validate() error {
	if l.Name == "" {
		return errors.NewValidationError("name", l.Name, "layout name is required")
	}
	if !l.EventType.Valid() {
		return errors.NewValidationError("event_type", l.EventType, fmt.Sprintf("layout %s: unknown event type", l.Name))
	}
	switch l.Format {
	case Delimited:
		if len([]rune(l.delimiter())) != 1 {
			return errors.NewValidationError("delimiter", l.Delimiter, fmt.Sprintf("layout %s: delimiter must be one character", l.Name))
		}
	case JSONLines:
	default:
		return errors.NewValidationError("format", l.Format, fmt.Sprintf("layout %s: unknown format", l.Name))
	}
	if l.MonthField != "" && l.MonthPattern != "" {
		return errors.NewValidationError("month_field", l.MonthField, fmt.Sprintf("layout %s: month_field and month_pattern are exclusive", l.Name))
	}
	if l.MonthPattern != "" {
		re, err := regexp.Compile(l.MonthPattern)
		if err != nil {
			return errors.WrapValidation("month_pattern", err)
		}
		if re.NumSubexp() != 1 {
			return errors.NewValidationError("month_pattern", l.MonthPattern, "pattern needs exactly one capture group")
		}
	}
	if l.EntityField == "" && l.SubEntityField == "" {
		return errors.NewValidationError("entity_field", "", fmt.Sprintf("layout %s: entity_field or sub_entity_field is required", l.Name))
	}
	if l.CountField == "" {
		return errors.NewValidationError("count_field", "", fmt.Sprintf("layout %s: count_field is required", l.Name))
	}
	for _, m := range []map[string]string{l.Dimensions, l.Labels} {
		for name := range m {
			if _, ok := events.ParseDimension(name); !ok {
				return errors.NewValidationError("dimensions", name, fmt.Sprintf("layout %s: unknown dimension", l.Name))
			}
		}
	}
	return nil
}

// NeedsFixedMonth reports whether sources of this layout must declare
// their month.
func (l *Layout) NeedsFixedMonth() bool {
	return l.MonthField == "" && l.MonthPattern == ""
}

// RequiredFields returns every column that must exist before a row is read.
func (l *Layout) RequiredFields() []string {
	var out []string
	for _, f := range []string{l.MonthField, l.EntityField, l.SubEntityField, l.CountField} {
		if f != "" {
			out = append(out, f)
		}
	}
	for _, f := range l.Required {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func (l *Layout) delimiter() string {
	if l.Delimiter == "" {
		return ","
	}
	return l.Delimiter
}

func (l *Layout) redactionTokens() []string {
	if len(l.Redacted) == 0 {
		return []string{constants.RedactedToken, constants.SuppressedToken}
	}
	return l.Redacted
}

// normalizeID trims, upper-cases and cuts an identifier to width. Shorter
// identifiers are returned unchanged.
func normalizeID(raw string, width int) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if width > 0 && len(id) > width {
		id = id[:width]
	}
	return id
}

// Built-in layout names.
const (
	LegacySeparations  = "legacy-separations"
	LegacyAccessions   = "legacy-accessions"
	MonthlySeparations = "monthly-separations"
	MonthlyAccessions  = "monthly-accessions"
	JSONLSeparations   = "jsonl-separations"
	JSONLAccessions    = "jsonl-accessions"
	EmploymentSnapshot = "employment-snapshot"
)

// BuiltinLayouts returns the layouts of the published extract generations.
func BuiltinLayouts() []Layout {
	return []Layout{
		{
			Name:           LegacySeparations,
			EventType:      events.Separation,
			Format:         Delimited,
			Delimiter:      ",",
			MonthField:     "EFDATE",
			SubEntityField: "AGYSUB",
			SubEntityWidth: constants.SubAgencyWidth,
			CountField:     "COUNT",
			SalaryField:    "SALARY",
			ServiceField:   "LOS",
			Dimensions:     map[string]string{"separation_category": "SEP"},
			Required:       []string{"SEP"},
		},
		{
			Name:           LegacyAccessions,
			EventType:      events.Accession,
			Format:         Delimited,
			Delimiter:      ",",
			MonthField:     "EFDATE",
			SubEntityField: "AGYSUB",
			SubEntityWidth: constants.SubAgencyWidth,
			CountField:     "COUNT",
			SalaryField:    "SALARY",
			ServiceField:   "LOS",
		},
		{
			Name:            MonthlySeparations,
			EventType:       events.Separation,
			Format:          Delimited,
			Delimiter:       "|",
			MonthPattern:    `(\d{6})`,
			EntityField:     "agency_code",
			EntityNameField: "agency",
			EntityWidth:     constants.AgencyWidth,
			CountField:      "count",
			Dimensions: map[string]string{
				"separation_category": "separation_category_code",
				"occupation":          "occupational_series",
				"age_bracket":         "age_bracket",
			},
			Required: []string{"separation_category_code"},
		},
		{
			Name:            MonthlyAccessions,
			EventType:       events.Accession,
			Format:          Delimited,
			Delimiter:       "|",
			MonthPattern:    `(\d{6})`,
			EntityField:     "agency_code",
			EntityNameField: "agency",
			EntityWidth:     constants.AgencyWidth,
			CountField:      "count",
			Dimensions: map[string]string{
				"occupation":  "occupational_series",
				"age_bracket": "age_bracket",
			},
		},
		{
			Name:            JSONLSeparations,
			EventType:       events.Separation,
			Format:          JSONLines,
			MonthField:      "personnel_action_effective_date_yyyymm",
			EntityField:     "agency_code",
			EntityNameField: "agency",
			EntityWidth:     constants.AgencyWidth,
			CountField:      "count",
			Dimensions: map[string]string{
				"separation_category": "separation_category_code",
				"occupation":          "occupational_series",
				"age_bracket":         "age_bracket",
			},
			Required: []string{"separation_category_code"},
		},
		{
			Name:            JSONLAccessions,
			EventType:       events.Accession,
			Format:          JSONLines,
			MonthField:      "personnel_action_effective_date_yyyymm",
			EntityField:     "agency_code",
			EntityNameField: "agency",
			EntityWidth:     constants.AgencyWidth,
			CountField:      "count",
			Dimensions: map[string]string{
				"occupation":  "occupational_series",
				"age_bracket": "age_bracket",
			},
		},
		{
			Name:            EmploymentSnapshot,
			EventType:       events.Snapshot,
			Format:          Delimited,
			Delimiter:       "|",
			EntityField:     "agency_code",
			EntityNameField: "agency",
			EntityWidth:     constants.AgencyWidth,
			CountField:      "count",
			SalaryField:     "annualized_adjusted_basic_pay",
			Dimensions: map[string]string{
				"occupation":        "occupational_series_code",
				"occupation_family": "occupational_group",
				"state":             "duty_station_state_abbreviation",
				"age_bracket":       "age_bracket",
				"education":         "education_level",
				"grade":             "grade",
			},
			Labels: map[string]string{
				"occupation": "occupational_series",
				"state":      "duty_station_state",
			},
		},
	}
}
