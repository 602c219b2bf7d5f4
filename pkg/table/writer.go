package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/user/gosec-auditlog/pkg/engine"
)

// ErrDestination wraps every failure to create or write the output file.
var ErrDestination = errors.New("output destination not writable")

const utf8BOM = "\xEF\xBB\xBF"

// Options controls table output
type Options struct {
	Schema         engine.Schema
	MaxFieldLength int
	// BOM prefixes the file with a UTF-8 byte order mark so spreadsheet
	// tools detect the encoding.
	BOM bool
}

// Writer streams records as CSV rows under a fixed header.
type Writer struct {
	out     io.Writer
	csv     *csv.Writer
	opts    Options
	started bool
}

func NewWriter(w io.Writer, opts Options) *Writer {
	if opts.Schema == "" {
		opts.Schema = engine.SchemaBasic
	}
	if opts.MaxFieldLength == 0 {
		opts.MaxFieldLength = engine.DefaultMaxFieldLength
	}
	return &Writer{out: w, csv: csv.NewWriter(w), opts: opts}
}

// WriteHeader writes the BOM (if enabled) and the header row. It is called
// implicitly by Write and Flush when needed.
func (w *Writer) WriteHeader() error {
	if w.started {
		return nil
	}
	w.started = true
	if w.opts.BOM {
		if _, err := io.WriteString(w.out, utf8BOM); err != nil {
			return err
		}
	}
	return w.csv.Write(Columns(w.opts.Schema))
}

func (w *Writer) Write(rec engine.Record) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	return w.csv.Write(Row(rec, w.opts.Schema, w.opts.MaxFieldLength))
}

// Flush makes sure the header exists, even for an empty table, and flushes.
func (w *Writer) Flush() error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Write renders records, header first, to w.
func Write(w io.Writer, records []engine.Record, opts Options) error {
	tw := NewWriter(w, opts)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := tw.Write(rec); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteFile creates path (truncating any existing file) and writes the
// whole table in one go. Failures wrap ErrDestination.
func WriteFile(path string, records []engine.Record, opts Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrDestination, cerr)
		}
	}()

	if err := Write(f, records, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	return nil
}
