package engine

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Fingerprint identifies a finding across runs. Scan time and generated
// probe rule ids are left out since they change from run to run.
func Fingerprint(rec Record) string {
	key := strings.Join([]string{
		strings.ToLower(rec.MachineName),
		rec.Vulnerability,
		rec.Description,
	}, "|")
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Diff is the outcome of comparing a current report with a baseline
type Diff struct {
	New       []Record
	Fixed     []Record
	Unchanged []Record
}

// Compare classifies findings as new (only in current), fixed (only in
// baseline) or unchanged (in both). Duplicates inside either side count once.
func Compare(current, baseline []Record) Diff {
	base := make(map[string]bool, len(baseline))
	for _, r := range baseline {
		base[Fingerprint(r)] = true
	}

	var d Diff
	seen := make(map[string]bool, len(current))
	for _, r := range Dedupe(current) {
		fp := Fingerprint(r)
		seen[fp] = true
		if base[fp] {
			d.Unchanged = append(d.Unchanged, r)
		} else {
			d.New = append(d.New, r)
		}
	}
	for _, r := range Dedupe(baseline) {
		if !seen[Fingerprint(r)] {
			d.Fixed = append(d.Fixed, r)
		}
	}
	return d
}

// Dedupe keeps the first record of every fingerprint, preserving order.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		fp := Fingerprint(r)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, r)
	}
	return out
}

// SeverityCounts tallies records per severity
type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func (c *SeverityCounts) Add(records []Record) {
	for _, r := range records {
		switch r.Severity {
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
}

func (c SeverityCounts) Total() int {
	return c.High + c.Medium + c.Low
}
