package batch

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/user/gosec-auditlog/pkg/engine"
)

// Printer writes operator-facing status lines: one per document and a
// final tally table.
type Printer struct {
	success *pterm.PrefixPrinter
	info    *pterm.PrefixPrinter
	failure *pterm.PrefixPrinter
	out     io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		success: pterm.Success.WithWriter(w),
		info:    pterm.Info.WithWriter(w),
		failure: pterm.Error.WithWriter(w),
		out:     w,
	}
}

// File prints the status line for one document.
func (p *Printer) File(r FileResult) {
	switch r.Status {
	case StatusCreated:
		p.success.Printfln("Created: %s (%d findings, %d high)", r.Output, r.Records, r.Counts.High)
	case StatusNoFindings:
		p.info.Printfln("No vulnerabilities in %s", filepath.Base(r.Path))
	case StatusReadFailed:
		if errors.Is(r.Err, ErrEmptyDocument) {
			p.failure.Printfln("Skipped %s: document is empty", r.Path)
			return
		}
		p.failure.Printfln("Error processing %s: %v", r.Path, r.Err)
	case StatusWriteFailed:
		p.failure.Printfln("Failed: %s: %v", r.Output, r.Err)
	}
}

// Summary renders the final tally.
func (p *Printer) Summary(s Summary) error {
	data := pterm.TableData{
		{"Documents", "Created", "No findings", "Failed", "Findings", "High", "Medium", "Low"},
		{
			strconv.Itoa(len(s.Results)),
			strconv.Itoa(s.Created),
			strconv.Itoa(s.NoFindings),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Records),
			strconv.Itoa(s.Counts.High),
			strconv.Itoa(s.Counts.Medium),
			strconv.Itoa(s.Counts.Low),
		},
	}
	fmt.Fprintln(p.out)
	if err := pterm.DefaultTable.WithHasHeader(true).WithWriter(p.out).WithData(data).Render(); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}

// Diff lists new, fixed and unchanged findings against a baseline. Only the
// first ten unchanged findings are listed.
func (p *Printer) Diff(baseline string, d engine.Diff) {
	fmt.Fprintf(p.out, "Report Comparison (vs %s):\n", baseline)
	fmt.Fprintln(p.out, "--------------------------------------------------")

	fmt.Fprintf(p.out, "NEW RISKS: %d\n", len(d.New))
	for _, r := range d.New {
		fmt.Fprintf(p.out, "  [+] %s\n", diffLine(r))
	}
	fmt.Fprintln(p.out)

	fmt.Fprintf(p.out, "FIXED RISKS: %d\n", len(d.Fixed))
	for _, r := range d.Fixed {
		fmt.Fprintf(p.out, "  [-] %s\n", diffLine(r))
	}
	fmt.Fprintln(p.out)

	fmt.Fprintf(p.out, "UNCHANGED RISKS: %d\n", len(d.Unchanged))
	for i, r := range d.Unchanged {
		if i == 10 {
			fmt.Fprintf(p.out, "  ... and %d more.\n", len(d.Unchanged)-10)
			break
		}
		fmt.Fprintf(p.out, "  [=] %s\n", diffLine(r))
	}
}

func diffLine(r engine.Record) string {
	return fmt.Sprintf("[%s] %s (%s) - %s", r.Severity, r.Vulnerability, r.RuleID, r.MachineName)
}
