package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Schema selects the output column set
type Schema string

const (
	SchemaBasic    Schema = "basic"
	SchemaExtended Schema = "extended"
)

// ParseSchema accepts "basic" or "extended" (case-insensitive); empty means basic.
func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SchemaBasic):
		return SchemaBasic, nil
	case string(SchemaExtended):
		return SchemaExtended, nil
	default:
		return "", fmt.Errorf("unknown output schema: %s", s)
	}
}

// DefaultMaxFieldLength bounds every output cell.
const DefaultMaxFieldLength = 500

// Options configures one extraction call.
type Options struct {
	SourcePath     string
	Schema         Schema
	MaxFieldLength int
	MachineID      string
	Clock          func() time.Time
	Remediation    *Remediations
}

func (o Options) withDefaults() Options {
	if o.Schema == "" {
		o.Schema = SchemaBasic
	}
	if o.MaxFieldLength <= 0 {
		o.MaxFieldLength = DefaultMaxFieldLength
	}
	if o.MachineID == "" {
		o.MachineID = DefaultMachineID
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Remediation == nil {
		o.Remediation = NewRemediations()
	}
	return o
}

// Stats counts what happened while extracting one document.
type Stats struct {
	Lines        int
	Unrecognized int
	Sections     int // sections emitted
	Discarded    int // sections closed without any content
	Probes       int
}

// Extraction is the outcome of extracting one document.
type Extraction struct {
	Source  string
	Dialect Dialect
	Machine MachineInfo
	Records []Record
	Stats   Stats
}

// Extract runs the log dialect pipeline over one document in a single
// forward pass. It never fails; lines it does not understand are skipped.
func Extract(doc string, opts Options) Extraction {
	opts = opts.withDefaults()
	info := ParseMachineInfo(doc)
	e := &extractor{
		opts:     opts,
		norm:     NewNormalizer(info, opts.MachineID, opts.Clock),
		counters: make(map[Kind]int),
	}

	for _, raw := range strings.Split(doc, "\n") {
		e.handle(strings.TrimSpace(raw))
	}
	// Unterminated section at end of input
	e.flush()

	return Extraction{
		Source:  opts.SourcePath,
		Dialect: DialectLog,
		Machine: info,
		Records: e.records,
		Stats:   e.stats,
	}
}

type section struct {
	rec      Record
	loggedAt string
}

type extractor struct {
	opts     Options
	norm     *Normalizer
	open     *section
	counters map[Kind]int
	records  []Record
	stats    Stats
}

func (e *extractor) handle(line string) {
	if line == "" {
		return
	}
	e.stats.Lines++

	c := Classify(line)
	switch c.Kind {
	case SectionStart:
		e.flush()
		ruleID := c.RuleID
		if ruleID == "" {
			ruleID = DefaultRuleID
		}
		e.open = &section{
			rec: Record{
				Vulnerability: c.Title,
				RuleID:        ruleID,
				Severity:      SeverityMedium,
				LogLine:       line,
			},
			loggedAt: c.LoggedAt,
		}

	case SectionEnd:
		e.flush()

	case Result:
		if e.open == nil || c.Text == "" {
			return
		}
		e.open.rec.Description += "Result: " + c.Text + ". "
		e.open.rec.Severity = Raise(e.open.rec.Severity, c.Text)

	case Suggestion:
		if e.open == nil || c.Text == "" {
			return
		}
		e.open.rec.Remediation = c.Text
		if e.open.rec.RuleID == DefaultRuleID && c.RuleID != "" {
			e.open.rec.RuleID = c.RuleID
		}

	case DirectoryProbe, KernelParamMissing, AccountNoExpiry, UmaskMissing:
		e.stats.Probes++
		e.emit(e.probe(c, line), c.LoggedAt)

	default:
		e.stats.Unrecognized++
	}
}

// flush closes the open section, emitting it only if it gathered content.
func (e *extractor) flush() {
	if e.open == nil {
		return
	}
	s := e.open
	e.open = nil
	if !s.rec.HasContent() || !s.rec.Identified() {
		e.stats.Discarded++
		return
	}
	e.stats.Sections++
	e.emit(s.rec, s.loggedAt)
}

func (e *extractor) emit(rec Record, loggedAt string) {
	e.norm.Stamp(&rec, loggedAt)
	e.records = append(e.records, rec)
}

// probe synthesizes the standalone record for a single-line finding.
func (e *extractor) probe(c Classification, line string) Record {
	e.counters[c.Kind]++
	n := e.counters[c.Kind]

	rec := Record{Vulnerability: c.Subject, LogLine: line}
	var tmpl string
	switch c.Kind {
	case DirectoryProbe:
		rec.RuleID = fmt.Sprintf("DIR-%03d", n)
		rec.Severity = SeverityMedium
		rec.Description = fmt.Sprintf("Directory %s not found or inaccessible.", c.Subject)
		tmpl = TemplateDirectory
	case KernelParamMissing:
		rec.RuleID = fmt.Sprintf("KPARAM-%03d", n)
		rec.Severity = SeverityHigh
		rec.Description = fmt.Sprintf("Kernel parameter %s is missing from the running configuration.", c.Subject)
		tmpl = TemplateKernel
	case AccountNoExpiry:
		rec.RuleID = fmt.Sprintf("ACCT-%03d", n)
		rec.Severity = SeverityHigh
		rec.Description = fmt.Sprintf("Account %s has no password expiry date set.", c.Subject)
		tmpl = TemplateAccount
	case UmaskMissing:
		rec.RuleID = fmt.Sprintf("UMASK-%03d", n)
		rec.Severity = SeverityMedium
		if c.Subject != "" {
			rec.Description = fmt.Sprintf("Default umask is not configured in %s.", c.Subject)
		} else {
			rec.Vulnerability = "umask"
			rec.Description = "Default umask is not configured."
		}
		tmpl = TemplateUmask
	}

	fix, err := e.opts.Remediation.Render(tmpl, c.Subject, rec.RuleID)
	if err != nil {
		// A broken override falls back to the shipped text.
		if t, ok := builtin(tmpl); ok {
			fix, _ = render(t, c.Subject, rec.RuleID)
		}
	}
	rec.Remediation = fix
	return rec
}

// Dialect is the input format of a document
type Dialect string

const (
	DialectLog    Dialect = "log"
	DialectReport Dialect = "report"
)

// DetectDialect picks the dialect from the file extension, falling back to
// sniffing the content for report-file keys.
func DetectDialect(path, doc string) Dialect {
	if strings.EqualFold(filepath.Ext(path), ".dat") {
		return DialectReport
	}
	for _, line := range strings.SplitN(doc, "\n", 50) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "report_version") || strings.HasPrefix(line, "warning[]=") || strings.HasPrefix(line, "suggestion[]=") {
			return DialectReport
		}
	}
	return DialectLog
}

// ExtractDocument detects the dialect of doc and runs the matching extractor.
func ExtractDocument(doc string, opts Options) Extraction {
	if DetectDialect(opts.SourcePath, doc) == DialectReport {
		return ExtractReport(doc, opts)
	}
	return Extract(doc, opts)
}
