package model

// FindingSeverity indicates the urgency level of a finding.
type FindingSeverity int

const (
	SeverityNormal FindingSeverity = iota
	SeverityWarning
	SeverityCritical
)

// FindingCategory groups related findings.
type FindingCategory int

const (
	CategoryHealth FindingCategory = iota
	CategorySecurity
	CategoryTraffic
	CategoryConfig
)

// Finding is a single advisory derived from the current graph state.
type Finding struct {
	Severity FindingSeverity
	Category FindingCategory
	Title    string
	Detail   string
}
