// Package constants provides shared constants used throughout the fedtrack
// codebase: file permissions, ownership cutoffs, ranking thresholds and
// list lengths that must agree between projections and their tests.
package constants

import "time"

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Timeouts
const (
	// BuildTimeout bounds a full build run from the CLI
	BuildTimeout = 30 * time.Minute
)

// Ownership
const (
	// LegacyCutoff is the last month owned by the legacy generation. Later
	// generations own every month strictly after it.
	LegacyCutoff = 202309
)

// Source parsing
const (
	// RedactedToken marks a value withheld by the publisher
	RedactedToken = "REDACTED"

	// SuppressedToken marks a suppressed cell in older extracts
	SuppressedToken = "*"

	// AgencyWidth is the width of a normalized agency code
	AgencyWidth = 2

	// SubAgencyWidth is the width of a normalized sub-agency code
	SubAgencyWidth = 4

	// CancelCheckInterval is how many rows an adapter reads between
	// context cancellation checks
	CancelCheckInterval = 4096

	// ValueScale is the fixed-point scale for salary and service values
	ValueScale = 10000

	// ValidateLineLimit is how many lines, header included, validation
	// reads from a source before giving up on finding a well-formed row
	ValidateLineLimit = 1000
)

// Ranking thresholds
const (
	// QuitRateMinSeparations must be exceeded for an agency to enter the quit rate ranking
	QuitRateMinSeparations = 500

	// TopPaidAgencyMinEmployees must be exceeded to enter the top paid agencies list
	TopPaidAgencyMinEmployees = 100

	// TopPaidOccupationMinEmployees must be exceeded to enter the top paid occupations list
	TopPaidOccupationMinEmployees = 50

	// OccupationDetailMinEmployees is the minimum headcount for an occupation detail artifact
	OccupationDetailMinEmployees = 100

	// AgencyDetailLimit is how many agencies, by headcount, get a detail artifact
	AgencyDetailLimit = 300
)

// List lengths
const (
	// TopQuitRates is the length of the quit rate ranking
	TopQuitRates = 10

	// TopRifAgencies is the length of the RIF ranking in site stats
	TopRifAgencies = 10

	// RifTopList is the length of rif-top.json
	RifTopList = 20

	// TopPaid is the length of the top paid lists in salary stats
	TopPaid = 20

	// DetailTopN is the length of ranked lists inside detail artifacts
	DetailTopN = 15

	// SeparationTypeTopN is the length of ranked lists in separation type artifacts
	SeparationTypeTopN = 20

	// FamilyTopOccupations is the number of occupations listed per family
	FamilyTopOccupations = 10

	// ImpactNetLoss is the number of agencies ranked by net loss in the impact report
	ImpactNetLoss = 10

	// ImpactRifAgencies is the number of agencies ranked by RIF count in the impact report
	ImpactRifAgencies = 15
)

// States
const (
	// UnreportedState is the location code for employees with no duty state
	// reported. It is listed but left out of the national average.
	UnreportedState = "NDR"
)

// Separation category codes with special projections
const (
	// QuitCategory is the separation category counted as a quit
	QuitCategory = "SC"

	// RifCategory is the separation category for reductions in force
	RifCategory = "SH"
)
