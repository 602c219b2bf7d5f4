package engine

import (
	"regexp"
	"strings"
)

// Kind is the semantic type of a single audit log line
type Kind int

const (
	Unrecognized Kind = iota
	SectionStart
	SectionEnd
	Result
	Suggestion
	DirectoryProbe
	KernelParamMissing
	AccountNoExpiry
	UmaskMissing
)

func (k Kind) String() string {
	switch k {
	case SectionStart:
		return "SectionStart"
	case SectionEnd:
		return "SectionEnd"
	case Result:
		return "Result"
	case Suggestion:
		return "Suggestion"
	case DirectoryProbe:
		return "DirectoryProbe"
	case KernelParamMissing:
		return "KernelParamMissing"
	case AccountNoExpiry:
		return "AccountNoExpiry"
	case UmaskMissing:
		return "UmaskMissing"
	default:
		return "Unrecognized"
	}
}

// IsProbe reports whether lines of this kind describe a complete finding on their own.
func (k Kind) IsProbe() bool {
	switch k {
	case DirectoryProbe, KernelParamMissing, AccountNoExpiry, UmaskMissing:
		return true
	}
	return false
}

// Classification is the result of classifying one line.
type Classification struct {
	Kind     Kind
	Title    string // section title
	RuleID   string // test id from the section header or a suggestion tag
	Text     string // result or suggestion text
	Subject  string // probe subject: path, parameter, account or file
	LoggedAt string // leading log timestamp, if any
}

// Every pattern is anchored at the start of the line, after an optional log
// timestamp, so markers quoted inside other text never match.
const stampPrefix = `^(?:\[?(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2})\]?\s+)?`

var (
	rePerformingTest = regexp.MustCompile(stampPrefix + `Performing test ID (\S+)\s*\((.+)\)\s*$`)
	reTest           = regexp.MustCompile(stampPrefix + `Test:\s*(\S.*)$`)
	reSectionEnd     = regexp.MustCompile(stampPrefix + `={4,}`)
	reDirectory      = regexp.MustCompile(stampPrefix + `Result:\s*(?i:directory)\s+(\S+)\s+(?i:could not be found|does not exist)`)
	reKernelParam    = regexp.MustCompile(stampPrefix + `Result:\s*(?i:sysctl key|kernel parameter)\s+(\S+)\s+(?i:not found|is missing|missing)`)
	reAccountExpiry  = regexp.MustCompile(stampPrefix + `Result:\s*(?i:account)\s+'?([^\s']+)'?\s+(?i:has no|without(?: an?)?)\s+(?i:password\s+)?(?i:expire|expiry|expiration)\s+(?i:date)`)
	reUmask          = regexp.MustCompile(stampPrefix + `Result:\s*(?i:umask)\s+(?i:not found|is missing|missing|not set)(?:\s+(?i:in)\s+(\S+))?`)
	reResult         = regexp.MustCompile(stampPrefix + `Result:\s*(.*?)\s*$`)
	reSuggestion     = regexp.MustCompile(stampPrefix + `Suggestion:\s*(.*?)(?:\s*\[test:([^\]]+)\])?\s*$`)
)

// Classify returns the classification of a single, already trimmed, line.
// It never fails: anything that matches no pattern is Unrecognized.
//
// Priority order, first match wins:
//
//	SectionStart, SectionEnd, DirectoryProbe, KernelParamMissing,
//	AccountNoExpiry, UmaskMissing, Result, Suggestion
//
// Section markers come before content markers and probes before the
// generic Result pattern that would otherwise swallow them.
func Classify(line string) Classification {
	line = strings.TrimSpace(line)
	if line == "" {
		return Classification{Kind: Unrecognized}
	}

	if m := rePerformingTest.FindStringSubmatch(line); m != nil {
		return Classification{Kind: SectionStart, LoggedAt: m[1], RuleID: m[2], Title: strings.TrimSpace(m[3])}
	}
	if m := reTest.FindStringSubmatch(line); m != nil {
		return Classification{Kind: SectionStart, LoggedAt: m[1], Title: strings.TrimSpace(m[2])}
	}
	if m := reSectionEnd.FindStringSubmatch(line); m != nil {
		return Classification{Kind: SectionEnd, LoggedAt: m[1]}
	}
	if m := reDirectory.FindStringSubmatch(line); m != nil {
		return Classification{Kind: DirectoryProbe, LoggedAt: m[1], Subject: m[2], Text: resultText(line)}
	}
	if m := reKernelParam.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KernelParamMissing, LoggedAt: m[1], Subject: m[2], Text: resultText(line)}
	}
	if m := reAccountExpiry.FindStringSubmatch(line); m != nil {
		return Classification{Kind: AccountNoExpiry, LoggedAt: m[1], Subject: m[2], Text: resultText(line)}
	}
	if m := reUmask.FindStringSubmatch(line); m != nil {
		return Classification{Kind: UmaskMissing, LoggedAt: m[1], Subject: m[2], Text: resultText(line)}
	}
	if m := reResult.FindStringSubmatch(line); m != nil {
		return Classification{Kind: Result, LoggedAt: m[1], Text: m[2]}
	}
	if m := reSuggestion.FindStringSubmatch(line); m != nil {
		return Classification{Kind: Suggestion, LoggedAt: m[1], Text: m[2], RuleID: strings.TrimSpace(m[3])}
	}
	return Classification{Kind: Unrecognized}
}

func resultText(line string) string {
	if m := reResult.FindStringSubmatch(line); m != nil {
		return m[2]
	}
	return ""
}
