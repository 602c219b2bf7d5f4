package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Clock: func() time.Time { return fixedNow }}
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

func TestExtractDirectoryProbeInsideSection(t *testing.T) {
	doc := lines(
		"Test: Checking /etc/ssh/sshd_config",
		"Result: directory /etc/ssh/sshd_config could not be found",
	)
	ex := Extract(doc, testOptions())

	require.Len(t, ex.Records, 1)
	rec := ex.Records[0]
	assert.Equal(t, "/etc/ssh/sshd_config", rec.Vulnerability)
	assert.Equal(t, SeverityMedium, rec.Severity)
	assert.Contains(t, rec.Description, "not found or inaccessible")
	assert.Equal(t, "DIR-001", rec.RuleID)
	assert.Equal(t, 1, ex.Stats.Discarded)
}

func TestExtractPasswordExpirySection(t *testing.T) {
	doc := lines(
		"Test: Password expiry",
		"Result: password does not expire",
		"====",
	)
	ex := Extract(doc, testOptions())

	require.Len(t, ex.Records, 1)
	assert.Equal(t, SeverityHigh, ex.Records[0].Severity)
	assert.Equal(t, "Password expiry", ex.Records[0].Vulnerability)
	assert.Equal(t, "Result: password does not expire. ", ex.Records[0].Description)
}

func TestExtractSeverity(t *testing.T) {
	ex := Extract(lines(
		"Test: Audit daemon",
		"Result: auditd missing",
		"====",
		"Test: File permissions",
		"Result: permissions OK",
		"====",
	), testOptions())

	require.Len(t, ex.Records, 2)
	assert.Equal(t, SeverityHigh, ex.Records[0].Severity)
	assert.True(t, ex.Records[0].Flagged)
	assert.Equal(t, SeverityMedium, ex.Records[1].Severity)
	assert.False(t, ex.Records[1].Flagged)
}

func TestExtractSeverityNeverLowers(t *testing.T) {
	ex := Extract(lines(
		"Test: Cron",
		"Result: cron.allow missing",
		"Result: cron.deny present",
		"====",
	), testOptions())

	require.Len(t, ex.Records, 1)
	assert.Equal(t, SeverityHigh, ex.Records[0].Severity)
	assert.Equal(t, "Result: cron.allow missing. Result: cron.deny present. ", ex.Records[0].Description)
}

func TestExtractUnterminatedSection(t *testing.T) {
	withContent := Extract(lines(
		"Test: Boot loader",
		"Result: no password on grub",
	), testOptions())
	require.Len(t, withContent.Records, 1)
	assert.Equal(t, "Boot loader", withContent.Records[0].Vulnerability)

	empty := Extract("Test: Boot loader", testOptions())
	assert.Empty(t, empty.Records)
	assert.Equal(t, 1, empty.Stats.Discarded)
}

func TestExtractConsecutiveStarts(t *testing.T) {
	ex := Extract(lines(
		"Test: First",
		"Result: one",
		"Test: Second",
		"Result: two",
		"====",
	), testOptions())

	require.Len(t, ex.Records, 2)
	assert.Equal(t, "First", ex.Records[0].Vulnerability)
	assert.Equal(t, "Result: one. ", ex.Records[0].Description)
	assert.Equal(t, "Second", ex.Records[1].Vulnerability)
	assert.Equal(t, "Result: two. ", ex.Records[1].Description)
}

func TestExtractProbesIgnoreSectionState(t *testing.T) {
	probes := []string{
		"Result: sysctl key kernel.kptr_restrict not found",
		"Result: directory /var/spool/cron could not be found",
	}

	idle := Extract(lines(probes...), testOptions())
	inSection := Extract(lines(append([]string{"Test: Kernel", "Result: checked"}, probes...)...), testOptions())

	for _, ex := range []Extraction{idle, inSection} {
		var kernel, dir *Record
		for i := range ex.Records {
			switch ex.Records[i].Vulnerability {
			case "kernel.kptr_restrict":
				kernel = &ex.Records[i]
			case "/var/spool/cron":
				dir = &ex.Records[i]
			}
		}
		require.NotNil(t, kernel)
		require.NotNil(t, dir)
		assert.Equal(t, SeverityHigh, kernel.Severity)
		assert.Equal(t, "KPARAM-001", kernel.RuleID)
		assert.Equal(t, SeverityMedium, dir.Severity)
		assert.Equal(t, "DIR-001", dir.RuleID)
	}

	// The section around the probes is still emitted after them.
	require.Len(t, inSection.Records, 3)
	assert.Equal(t, "Kernel", inSection.Records[2].Vulnerability)
}

func TestExtractProbeCounters(t *testing.T) {
	ex := Extract(lines(
		"Result: account 'games' has no password expiry date",
		"Result: account 'backup' has no password expiry date",
		"Result: umask not set",
	), testOptions())

	require.Len(t, ex.Records, 3)
	assert.Equal(t, "ACCT-001", ex.Records[0].RuleID)
	assert.Equal(t, "ACCT-002", ex.Records[1].RuleID)
	assert.Equal(t, SeverityHigh, ex.Records[1].Severity)
	assert.Contains(t, ex.Records[1].Remediation, "chage -M 90 backup")

	umask := ex.Records[2]
	assert.Equal(t, "UMASK-001", umask.RuleID)
	assert.Equal(t, "umask", umask.Vulnerability)
	assert.Contains(t, umask.Remediation, "/etc/login.defs")
	assert.Equal(t, 3, ex.Stats.Probes)
}

func TestExtractSuggestion(t *testing.T) {
	ex := Extract(lines(
		"Test: SSH",
		"Suggestion: Disable root login",
		"Suggestion: Disable TCP forwarding [test:SSH-7408]",
		"====",
	), testOptions())

	require.Len(t, ex.Records, 1)
	rec := ex.Records[0]
	assert.Equal(t, "Disable TCP forwarding", rec.Remediation)
	assert.Equal(t, "SSH-7408", rec.RuleID)
	assert.Empty(t, rec.Description)
}

func TestExtractPerformingTestRuleID(t *testing.T) {
	ex := Extract(lines(
		"2024-02-28 09:15:00 Performing test ID AUTH-9286 (Checking user password aging)",
		"2024-02-28 09:15:01 Result: minimum password age not configured",
		"2024-02-28 09:15:01 Suggestion: Configure minimum password age [test:AUTH-9999]",
		"2024-02-28 09:15:02 ====",
	), testOptions())

	require.Len(t, ex.Records, 1)
	rec := ex.Records[0]
	// The header id wins over the suggestion tag.
	assert.Equal(t, "AUTH-9286", rec.RuleID)
	assert.Equal(t, "Checking user password aging", rec.Vulnerability)
	assert.True(t, rec.LoggedAt.Equal(time.Date(2024, 2, 28, 9, 15, 0, 0, time.Local)))
	assert.Equal(t, fixedNow, rec.ScannedAt)
}

func TestExtractIgnoresContentOutsideSections(t *testing.T) {
	ex := Extract(lines(
		"Result: stray result",
		"Suggestion: stray suggestion",
		"random noise",
	), testOptions())

	assert.Empty(t, ex.Records)
	assert.Equal(t, 3, ex.Stats.Lines)
	assert.Equal(t, 1, ex.Stats.Unrecognized)
}

func TestExtractStampsMachineIdentity(t *testing.T) {
	ex := Extract(lines(
		"Machine role: workstation",
		"Operating system: Ubuntu 22.04",
		"Hostname: web-01",
		"Test: Firewall",
		"Result: iptables unsecured",
		"====",
	), Options{Clock: func() time.Time { return fixedNow }, MachineID: "MACH_042"})

	require.Len(t, ex.Records, 1)
	rec := ex.Records[0]
	assert.Equal(t, "workstation", rec.MachineImpacted)
	assert.Equal(t, "Ubuntu 22.04", rec.MachineOS)
	assert.Equal(t, "web-01", rec.MachineName)
	assert.Equal(t, "MACH_042", rec.MachineID)
	assert.Equal(t, PatchStatusPending, rec.PatchStatus)
	assert.Equal(t, "Test: Firewall", rec.LogLine)
}

func TestExtractRecordsAreIdentified(t *testing.T) {
	doc := lines(
		"Test: A",
		"Result: x",
		"Result: directory /x could not be found",
		"====",
		"====",
		"Suggestion: y",
		"Test: B",
		"Suggestion: z",
	)
	for _, rec := range Extract(doc, testOptions()).Records {
		assert.True(t, rec.Identified())
		assert.True(t, rec.HasContent())
	}
}

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema("")
	require.NoError(t, err)
	assert.Equal(t, SchemaBasic, s)

	s, err = ParseSchema(" Extended ")
	require.NoError(t, err)
	assert.Equal(t, SchemaExtended, s)

	_, err = ParseSchema("wide")
	assert.Error(t, err)
}

func TestDetectDialect(t *testing.T) {
	assert.Equal(t, DialectReport, DetectDialect("/var/log/lynis-report.dat", ""))
	assert.Equal(t, DialectReport, DetectDialect("report.txt", "# comment\nreport_version_major=1\n"))
	assert.Equal(t, DialectReport, DetectDialect("x.log", "warning[]=SSH-7408|x|-|-|"))
	assert.Equal(t, DialectLog, DetectDialect("lynis.log", "Test: something\n"))
}

func TestExtractDocumentDispatch(t *testing.T) {
	opts := testOptions()
	opts.SourcePath = "lynis-report.dat"
	ex := ExtractDocument("warning[]=AUTH-9286|Configure maximum password age|-|-|", opts)
	assert.Equal(t, DialectReport, ex.Dialect)
	require.Len(t, ex.Records, 1)

	opts.SourcePath = "lynis.log"
	ex = ExtractDocument("Test: X\nResult: y\n====", opts)
	assert.Equal(t, DialectLog, ex.Dialect)
	require.Len(t, ex.Records, 1)
}
