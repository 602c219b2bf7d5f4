package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMachineInfoDefaults(t *testing.T) {
	info := ParseMachineInfo("Test: nothing here\n")
	assert.Equal(t, DefaultRole, info.Role)
	assert.Equal(t, DefaultOS, info.OS)
	assert.Equal(t, DefaultRole, info.Hostname)
	assert.Equal(t, DefaultIPAddress, info.IPAddress)
	assert.Equal(t, DefaultUnknownUser, info.LastLoggedInUser)
	assert.Empty(t, info.LastActive)
}

func TestParseMachineInfo(t *testing.T) {
	doc := "machine role: database\n" +
		"Operating system: Debian GNU/Linux 12\n" +
		"IP address: 10.0.0.5\n" +
		"Last logged-in user: alice\n" +
		"Last active: 2024-02-29 23:59:00\n"
	info := ParseMachineInfo(doc)
	assert.Equal(t, "database", info.Role)
	assert.Equal(t, "Debian GNU/Linux 12", info.OS)
	// No hostname marker: the role stands in.
	assert.Equal(t, "database", info.Hostname)
	assert.Equal(t, "10.0.0.5", info.IPAddress)
	assert.Equal(t, "alice", info.LastLoggedInUser)
	assert.Equal(t, "2024-02-29 23:59:00", info.LastActive)
}

func TestNormalizerStamp(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	n := NewNormalizer(MachineInfo{Role: "server", OS: "Linux", Hostname: "db-01", IPAddress: "N/A", LastLoggedInUser: "N/A"}, "", func() time.Time { return now })

	rec := Record{Vulnerability: "x", Description: "Result: y. "}
	n.Stamp(&rec, "")

	assert.Equal(t, now, rec.ScannedAt)
	assert.Equal(t, now, rec.LoggedAt)
	assert.Equal(t, "server", rec.MachineImpacted)
	assert.Equal(t, "db-01", rec.MachineName)
	assert.Equal(t, "Linux", rec.MachineOS)
	assert.Equal(t, DefaultMachineID, rec.MachineID)
	assert.Equal(t, DefaultRuleID, rec.RuleID)
	assert.Equal(t, SeverityMedium, rec.Severity)
	assert.Equal(t, PatchStatusPending, rec.PatchStatus)
	assert.Equal(t, "2024-03-01 08:30:00", rec.LastActive)
	assert.False(t, rec.Flagged)
}

func TestNormalizerStampKeepsSeverityAndRule(t *testing.T) {
	n := NewNormalizer(MachineInfo{}, "MACH_007", nil)
	rec := Record{Vulnerability: "x", RuleID: "KRNL-5820", Severity: SeverityHigh}
	n.Stamp(&rec, "not a timestamp")

	assert.Equal(t, "KRNL-5820", rec.RuleID)
	assert.Equal(t, SeverityHigh, rec.Severity)
	assert.Equal(t, "MACH_007", rec.MachineID)
	assert.True(t, rec.Flagged)
	assert.Equal(t, rec.ScannedAt, rec.LoggedAt)
}
