package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `# Lynis Report
report_version_major=1
report_datetime_start=2024-03-01 07:00:00
hostname=web-02
os=Linux
os_fullname=Ubuntu 22.04.3 LTS
network_ipv4_address[]=192.168.1.20
network_ipv4_address[]=10.0.0.2
warning[]=AUTH-9286|Configure maximum password age|-|-|
suggestion[]=SSH-7408|Consider hardening SSH configuration|AllowTcpForwarding (set YES to NO)|-|
suggestion[]=PKGS-7370|Install debsums utility|-|apt install debsums|
suggestion[]=|
garbage line
`

func TestExtractReport(t *testing.T) {
	ex := ExtractReport(sampleReport, testOptions())

	assert.Equal(t, DialectReport, ex.Dialect)
	assert.Equal(t, "web-02", ex.Machine.Hostname)
	assert.Equal(t, "Ubuntu 22.04.3 LTS", ex.Machine.OS)
	assert.Equal(t, "192.168.1.20", ex.Machine.IPAddress)
	assert.Equal(t, 2, ex.Stats.Unrecognized)

	require.Len(t, ex.Records, 3)

	warn := ex.Records[0]
	assert.Equal(t, "AUTH-9286", warn.RuleID)
	assert.Equal(t, "Configure maximum password age", warn.Vulnerability)
	assert.Equal(t, SeverityHigh, warn.Severity)
	assert.Equal(t, "Warning: Configure maximum password age. ", warn.Description)
	assert.Equal(t, "Check Lynis logs for specific remediation steps.", warn.Remediation)
	assert.True(t, warn.LoggedAt.Equal(time.Date(2024, 3, 1, 7, 0, 0, 0, time.Local)))

	ssh := ex.Records[1]
	assert.Equal(t, SeverityMedium, ssh.Severity)
	assert.Equal(t, "Suggestion: Consider hardening SSH configuration. Details: AllowTcpForwarding (set YES to NO). ", ssh.Description)
	assert.Equal(t, "Consider implementing this suggestion for better hardening.", ssh.Remediation)

	pkgs := ex.Records[2]
	assert.Equal(t, "apt install debsums", pkgs.Remediation)
	assert.Equal(t, "web-02", pkgs.MachineName)
	assert.Equal(t, PatchStatusPending, pkgs.PatchStatus)
}

func TestExtractReportRaisesSuggestions(t *testing.T) {
	ex := ExtractReport("suggestion[]=KRNL-6000|Kernel hardening option missing|-|-|", testOptions())
	require.Len(t, ex.Records, 1)
	assert.Equal(t, SeverityHigh, ex.Records[0].Severity)
	assert.Equal(t, DefaultRole, ex.Records[0].MachineName)
}

func TestExtractReportLongLine(t *testing.T) {
	doc := "details[]=" + strings.Repeat("x", 2*1024*1024) + "\n" +
		"warning[]=AUTH-9286|Configure maximum password age|-|-|\n" +
		"warning[]=SSH-7408|Root login allowed|-|-|\n"

	ex := ExtractReport(doc, testOptions())
	require.Len(t, ex.Records, 2)
	assert.Equal(t, "AUTH-9286", ex.Records[0].RuleID)
	assert.Equal(t, "SSH-7408", ex.Records[1].RuleID)
	assert.Equal(t, 3, ex.Stats.Lines)
}
