package engine

import (
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout used in audit logs and output tables.
const TimeLayout = "2006-01-02 15:04:05"

// MachineInfo is the identity of the audited machine, taken from the
// document header once before any line is processed.
type MachineInfo struct {
	Role             string
	OS               string
	Hostname         string
	IPAddress        string
	LastLoggedInUser string
	LastActive       string
}

var (
	reRole       = regexp.MustCompile(`(?i)Machine[ \t]*role:[ \t]*(\w+)`)
	reOS         = regexp.MustCompile(`(?i)Operating[ \t]*system:[ \t]*(.+)`)
	reHostname   = regexp.MustCompile(`(?i)Hostname:[ \t]*(\S+)`)
	reIPAddress  = regexp.MustCompile(`(?i)IP[ \t]*address(?:es)?:[ \t]*(\S+)`)
	reLastUser   = regexp.MustCompile(`(?i)Last[ \t]*logged[ \t-]*in[ \t]*user:[ \t]*(\S+)`)
	reLastActive = regexp.MustCompile(`(?i)Last[ \t]*active:[ \t]*(.+)`)
)

// ParseMachineInfo pulls machine identity markers out of a whole document.
// Missing markers fall back to defaults; the hostname defaults to the role.
func ParseMachineInfo(doc string) MachineInfo {
	info := MachineInfo{
		Role:             firstGroup(reRole, doc, DefaultRole),
		OS:               firstGroup(reOS, doc, DefaultOS),
		IPAddress:        firstGroup(reIPAddress, doc, DefaultIPAddress),
		LastLoggedInUser: firstGroup(reLastUser, doc, DefaultUnknownUser),
		LastActive:       firstGroup(reLastActive, doc, ""),
	}
	info.Hostname = firstGroup(reHostname, doc, info.Role)
	return info
}

func firstGroup(re *regexp.Regexp, doc, fallback string) string {
	m := re.FindStringSubmatch(doc)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

// Normalizer stamps derived and default fields onto records right before
// they are emitted. One normalizer serves one document.
type Normalizer struct {
	Machine   MachineInfo
	MachineID string
	Clock     func() time.Time
}

// NewNormalizer builds a normalizer for a document with the given identity.
func NewNormalizer(info MachineInfo, machineID string, clock func() time.Time) *Normalizer {
	if machineID == "" {
		machineID = DefaultMachineID
	}
	if clock == nil {
		clock = time.Now
	}
	return &Normalizer{Machine: info, MachineID: machineID, Clock: clock}
}

// Stamp fills machine identity, scan time, patch status and the extended
// schema fields. loggedAt is the timestamp found on the source line, if any.
func (n *Normalizer) Stamp(rec *Record, loggedAt string) {
	rec.ScannedAt = n.Clock()
	rec.MachineImpacted = n.Machine.Role
	rec.MachineName = n.Machine.Hostname
	rec.MachineOS = n.Machine.OS
	rec.MachineID = n.MachineID
	rec.PatchStatus = PatchStatusPending
	if rec.RuleID == "" {
		rec.RuleID = DefaultRuleID
	}
	if rec.Severity == "" {
		rec.Severity = SeverityMedium
	}

	rec.IPAddress = n.Machine.IPAddress
	rec.LastLoggedInUser = n.Machine.LastLoggedInUser
	rec.LastActive = n.Machine.LastActive
	if rec.LastActive == "" {
		rec.LastActive = rec.ScannedAt.Format(TimeLayout)
	}
	rec.LoggedAt = rec.ScannedAt
	if t, ok := parseLogTime(loggedAt); ok {
		rec.LoggedAt = t
	}
	rec.Flagged = rec.Severity == SeverityHigh
}

func parseLogTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	s = strings.Replace(s, "T", " ", 1)
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
