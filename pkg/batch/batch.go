// Package batch drives extraction over a single log file or a directory of
// logs, isolating failures per document.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/user/gosec-auditlog/pkg/engine"
	"github.com/user/gosec-auditlog/pkg/logger"
	"github.com/user/gosec-auditlog/pkg/table"
)

var (
	ErrSourceMissing = errors.New("source path does not exist")
	ErrOutputDir     = errors.New("cannot create output directory")
	ErrEmptyDocument = errors.New("document is empty")
)

// Status is the outcome for one document
type Status string

const (
	StatusCreated     Status = "created"
	StatusNoFindings  Status = "no_findings"
	StatusReadFailed  Status = "read_failed"
	StatusWriteFailed Status = "write_failed"
)

// Failed reports whether the document's results were lost.
func (s Status) Failed() bool {
	return s == StatusReadFailed || s == StatusWriteFailed
}

type Options struct {
	Source     string
	OutputDir  string
	Extensions []string // used only when Source is a directory
	Workers    int
	Engine     engine.Options
	Table      table.Options

	// OnResult, when set, is called once per document as soon as it is
	// done. Calls are serialized.
	OnResult func(FileResult)
}

// FileResult is the status of one document
type FileResult struct {
	Path    string
	Output  string
	Status  Status
	Dialect engine.Dialect
	Records int
	Counts  engine.SeverityCounts
	Stats   engine.Stats
	Err     error
}

// Summary is the tally over all documents, with results in source order.
type Summary struct {
	Results    []FileResult
	Created    int
	NoFindings int
	Failed     int
	Records    int
	Counts     engine.SeverityCounts
}

func (s *Summary) add(r FileResult) {
	switch {
	case r.Status == StatusCreated:
		s.Created++
	case r.Status == StatusNoFindings:
		s.NoFindings++
	case r.Status.Failed():
		s.Failed++
	}
	s.Records += r.Records
	s.Counts.High += r.Counts.High
	s.Counts.Medium += r.Counts.Medium
	s.Counts.Low += r.Counts.Low
}

// Run processes every document selected by opts. Only a missing source or
// an output directory that cannot be created abort the run; anything that
// goes wrong with a single document is reported in its FileResult.
func Run(ctx context.Context, opts Options) (Summary, error) {
	files, err := CollectFiles(opts.Source, opts.Extensions)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("%w %s: %w", ErrOutputDir, opts.OutputDir, err)
	}

	outputs := OutputPaths(opts.OutputDir, files)
	results := make([]FileResult, len(files))

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := ProcessFile(path, outputs[i], opts)
			results[i] = res
			if opts.OnResult != nil {
				mu.Lock()
				opts.OnResult(res)
				mu.Unlock()
			}
			return nil
		})
	}
	runErr := g.Wait()

	var sum Summary
	for _, r := range results {
		if r.Path == "" {
			// never started because the run was cancelled
			continue
		}
		sum.Results = append(sum.Results, r)
		sum.add(r)
	}
	return sum, runErr
}

// ProcessFile runs read, extract and write for one document.
func ProcessFile(path, output string, opts Options) FileResult {
	res := FileResult{Path: path, Output: output}
	log := logger.WithField("file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		res.Status = StatusReadFailed
		res.Err = err
		log.Warnf("read failed: %v", err)
		return res
	}
	doc := string(data)
	if strings.TrimSpace(doc) == "" {
		res.Status = StatusReadFailed
		res.Err = ErrEmptyDocument
		log.Warn("document is empty")
		return res
	}

	eopts := opts.Engine
	eopts.SourcePath = path
	ext := engine.ExtractDocument(doc, eopts)
	res.Dialect = ext.Dialect
	res.Stats = ext.Stats
	res.Records = len(ext.Records)
	res.Counts.Add(ext.Records)
	log.WithFields(logrus.Fields{
		"dialect":      ext.Dialect,
		"lines":        ext.Stats.Lines,
		"unrecognized": ext.Stats.Unrecognized,
		"sections":     ext.Stats.Sections,
		"discarded":    ext.Stats.Discarded,
		"probes":       ext.Stats.Probes,
	}).Debug("extracted")

	if len(ext.Records) == 0 {
		res.Status = StatusNoFindings
		res.Output = ""
		return res
	}

	if err := table.WriteFile(output, ext.Records, opts.Table); err != nil {
		res.Status = StatusWriteFailed
		res.Err = err
		log.Errorf("write failed: %v", err)
		return res
	}
	res.Status = StatusCreated
	return res
}

// CollectFiles returns source itself when it is a file, or the files directly
// inside it whose extension is selected, sorted by name.
func CollectFiles(source string, extensions []string) ([]string, error) {
	info, err := os.Stat(source)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, source)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !MatchExtension(e.Name(), extensions) {
			continue
		}
		files = append(files, filepath.Join(source, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// MatchExtension reports whether name ends in one of extensions (case-insensitive).
func MatchExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// OutputPath is "<dir>/<name without extension>_report.csv".
func OutputPath(outputDir, source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, base+"_report.csv")
}

// OutputPaths assigns output files to sources. When two sources would share
// a name (scan.txt and scan.log) the later one keeps its extension in the name.
func OutputPaths(outputDir string, sources []string) []string {
	out := make([]string, len(sources))
	used := make(map[string]bool, len(sources))
	for i, src := range sources {
		p := OutputPath(outputDir, src)
		if used[p] {
			base := filepath.Base(src)
			ext := strings.TrimPrefix(filepath.Ext(base), ".")
			p = filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+"_"+ext+"_report.csv")
		}
		used[p] = true
		out[i] = p
	}
	return out
}
