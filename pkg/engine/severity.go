package engine

import "strings"

// Any of these in a result line is enough to call it High.
var highKeywords = []string{"missing", "not found", "vulnerable", "unsecured"}

// Assess maps one fragment of result text to the severity it implies.
// Text that matches no rule returns the empty severity, which never raises.
func Assess(text string) Severity {
	lower := strings.ToLower(text)
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return SeverityHigh
		}
	}
	// Both words must show up in the same fragment.
	if strings.Contains(lower, "password") && strings.Contains(lower, "expire") {
		return SeverityHigh
	}
	return ""
}

// Raise returns current raised by whatever text implies. It never lowers.
func Raise(current Severity, text string) Severity {
	if current == "" {
		current = SeverityMedium
	}
	return MaxSeverity(current, Assess(text))
}
