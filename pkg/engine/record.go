package engine

import "time"

// Severity is the ordinal classification assigned to a record
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Rank orders severities so they can be compared. Unknown values rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the higher of a and b
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// PatchStatusPending is the only patch status the extractor ever assigns.
const PatchStatusPending = "Pending"

const (
	DefaultRuleID      = "N/A"
	DefaultRole        = "server"
	DefaultOS          = "Linux"
	DefaultMachineID   = "MACH_001"
	DefaultUnknownUser = "N/A"
	DefaultIPAddress   = "N/A"
)

// Record is one normalized vulnerability finding extracted from an audit log.
// All fields are always present; the table writer never special-cases
// missing values.
type Record struct {
	ScannedAt       time.Time `json:"scanned_at"`
	Vulnerability   string    `json:"vulnerability"`
	MachineImpacted string    `json:"machine_impacted"`
	Severity        Severity  `json:"severity"`
	Description     string    `json:"description"`
	RuleID          string    `json:"rule_id"`
	MachineID       string    `json:"machine_id"`
	MachineName     string    `json:"machine_name"`
	MachineOS       string    `json:"machine_os"`
	Remediation     string    `json:"remediation"`
	PatchStatus     string    `json:"patch_status"`
	LogLine         string    `json:"log_line"`

	// Extended schema only
	LastActive       string    `json:"last_active"`
	LastLoggedInUser string    `json:"last_logged_in_user"`
	IPAddress        string    `json:"ip_address"`
	LoggedAt         time.Time `json:"logged_at"`
	Flagged          bool      `json:"flagged"`
}

// Identified reports whether the record carries a name or a rule id.
func (r Record) Identified() bool {
	return r.Vulnerability != "" || (r.RuleID != "" && r.RuleID != DefaultRuleID)
}

// HasContent reports whether anything descriptive was gathered for the record.
func (r Record) HasContent() bool {
	return r.Description != "" || r.Remediation != ""
}
