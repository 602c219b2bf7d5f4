package engine

import "strings"

// ExtractReport parses a Lynis report file (key=value lines) where every
// warning[]= and suggestion[]= entry is a complete finding:
//
//	warning[]=AUTH-9286|Configure maximum password age|-|-|
//	suggestion[]=SSH-7408|Consider hardening SSH|AllowTcpForwarding (YES --> NO)|-|
func ExtractReport(doc string, opts Options) Extraction {
	opts = opts.withDefaults()

	info := MachineInfo{
		Role:             DefaultRole,
		OS:               DefaultOS,
		IPAddress:        DefaultIPAddress,
		LastLoggedInUser: DefaultUnknownUser,
	}
	var startedAt string
	var entries []reportEntry
	var stats Stats

	// No line length cap: one oversized value must not hide later entries.
	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stats.Lines++

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			stats.Unrecognized++
			continue
		}
		switch key {
		case "warning[]", "suggestion[]":
			if e, ok := parseReportEntry(key == "warning[]", value, line); ok {
				entries = append(entries, e)
			} else {
				stats.Unrecognized++
			}
		case "hostname":
			info.Hostname = value
		case "os":
			if info.OS == DefaultOS && value != "" {
				info.OS = value
			}
		case "os_fullname":
			if value != "" {
				info.OS = value
			}
		case "machine_role":
			if value != "" {
				info.Role = value
			}
		case "network_ipv4_address[]":
			if info.IPAddress == DefaultIPAddress && value != "" {
				info.IPAddress = value
			}
		case "last_logged_in_user":
			if value != "" {
				info.LastLoggedInUser = value
			}
		case "report_datetime_start":
			startedAt = value
		}
	}
	if info.Hostname == "" {
		info.Hostname = info.Role
	}

	norm := NewNormalizer(info, opts.MachineID, opts.Clock)
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		rec := e.record()
		norm.Stamp(&rec, startedAt)
		records = append(records, rec)
		stats.Probes++
	}

	return Extraction{
		Source:  opts.SourcePath,
		Dialect: DialectReport,
		Machine: info,
		Records: records,
		Stats:   stats,
	}
}

type reportEntry struct {
	warning  bool
	id       string
	message  string
	details  string
	solution string
	line     string
}

func parseReportEntry(warning bool, value, line string) (reportEntry, bool) {
	parts := strings.Split(value, "|")
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	e := reportEntry{
		warning:  warning,
		id:       strings.TrimSpace(parts[0]),
		message:  strings.TrimSpace(parts[1]),
		details:  dashEmpty(parts[2]),
		solution: dashEmpty(parts[3]),
		line:     line,
	}
	if e.id == "" && e.message == "" {
		return reportEntry{}, false
	}
	return e, true
}

func dashEmpty(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}
	return s
}

func (e reportEntry) record() Record {
	rec := Record{
		Vulnerability: e.message,
		RuleID:        e.id,
		LogLine:       e.line,
	}
	if rec.Vulnerability == "" {
		rec.Vulnerability = e.id
	}

	kind := "Suggestion"
	rec.Severity = SeverityMedium
	if e.warning {
		kind = "Warning"
		rec.Severity = SeverityHigh
	}
	rec.Description = kind + ": " + e.message + ". "
	if e.details != "" {
		rec.Description += "Details: " + e.details + ". "
	}
	rec.Severity = Raise(rec.Severity, e.message+" "+e.details)

	switch {
	case e.solution != "":
		rec.Remediation = e.solution
	case e.warning:
		rec.Remediation = "Check Lynis logs for specific remediation steps."
	default:
		rec.Remediation = "Consider implementing this suggestion for better hardening."
	}
	return rec
}
