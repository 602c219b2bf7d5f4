// Package table writes and reads the fixed-column vulnerability tables
// produced from extracted audit records.
package table

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/user/gosec-auditlog/pkg/engine"
)

// Column names are part of the output contract; downstream consumers key on
// both position and name.
const (
	ColScannedAt     = "Datetime (when it was scanned)"
	ColVulnerability = "Vulnerability"
	ColMachine       = "MachineImpacted"
	ColSeverity      = "Severity"
	ColDescription   = "Vulnerability Description"
	ColRuleID        = "Vuln_ID (FK)"
	ColMachineID     = "Mach_id (FK)"
	ColMachineName   = "Machine_name"
	ColMachineOS     = "Machine_OS"
	ColFix           = "Fix"
	ColPatchStatus   = "Patch status"
	ColLog           = "Log"

	ColLastActive = "Last_active"
	ColLastUser   = "Last_logged_in_user"
	ColIPAddress  = "IP_address"
	ColDateTime   = "Date_Time"
	ColFlag       = "Flag"
)

var basicColumns = []string{
	ColScannedAt,
	ColVulnerability,
	ColMachine,
	ColSeverity,
	ColDescription,
	ColRuleID,
	ColMachineID,
	ColMachineName,
	ColMachineOS,
	ColFix,
	ColPatchStatus,
	ColLog,
}

var extendedColumns = []string{
	ColLastActive,
	ColLastUser,
	ColIPAddress,
	ColDateTime,
	ColFlag,
}

// Columns returns the header row for a schema. The slice is a fresh copy.
func Columns(s engine.Schema) []string {
	cols := append([]string(nil), basicColumns...)
	if s == engine.SchemaExtended {
		cols = append(cols, extendedColumns...)
	}
	return cols
}

// Row projects a record onto the schema's columns, turning line breaks into
// spaces and truncating every cell to max runes (max <= 0 disables truncation).
func Row(rec engine.Record, s engine.Schema, max int) []string {
	row := []string{
		rec.ScannedAt.Format(engine.TimeLayout),
		rec.Vulnerability,
		rec.MachineImpacted,
		string(rec.Severity),
		rec.Description,
		rec.RuleID,
		rec.MachineID,
		rec.MachineName,
		rec.MachineOS,
		rec.Remediation,
		rec.PatchStatus,
		rec.LogLine,
	}
	if s == engine.SchemaExtended {
		row = append(row,
			rec.LastActive,
			rec.LastLoggedInUser,
			rec.IPAddress,
			rec.LoggedAt.Format(engine.TimeLayout),
			strconv.FormatBool(rec.Flagged),
		)
	}
	for i := range row {
		row[i] = Truncate(lineBreaks.Replace(row[i]), max)
	}
	return row
}

// Every record is exactly one physical line in the output.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
