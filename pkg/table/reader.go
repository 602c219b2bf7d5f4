package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/user/gosec-auditlog/pkg/engine"
)

// Read parses a table written by Write back into records. Columns are
// located by header name, so both schemas are accepted.
func Read(r io.Reader) ([]engine.Record, engine.Schema, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, "", fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, "", fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range basicColumns {
		if _, ok := idx[name]; !ok {
			return nil, "", fmt.Errorf("missing column %q", name)
		}
	}
	schema := engine.SchemaBasic
	if _, ok := idx[ColFlag]; ok {
		schema = engine.SchemaExtended
	}

	var records []engine.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		get := func(name string) string {
			if i, ok := idx[name]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}

		rec := engine.Record{
			ScannedAt:       parseTime(get(ColScannedAt)),
			Vulnerability:   get(ColVulnerability),
			MachineImpacted: get(ColMachine),
			Severity:        engine.Severity(get(ColSeverity)),
			Description:     get(ColDescription),
			RuleID:          get(ColRuleID),
			MachineID:       get(ColMachineID),
			MachineName:     get(ColMachineName),
			MachineOS:       get(ColMachineOS),
			Remediation:     get(ColFix),
			PatchStatus:     get(ColPatchStatus),
			LogLine:         get(ColLog),
		}
		if schema == engine.SchemaExtended {
			rec.LastActive = get(ColLastActive)
			rec.LastLoggedInUser = get(ColLastUser)
			rec.IPAddress = get(ColIPAddress)
			rec.LoggedAt = parseTime(get(ColDateTime))
			rec.Flagged, _ = strconv.ParseBool(get(ColFlag))
		}
		records = append(records, rec)
	}
	return records, schema, nil
}

// ReadFile opens and parses a table file.
func ReadFile(path string) ([]engine.Record, engine.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return Read(f)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(engine.TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
