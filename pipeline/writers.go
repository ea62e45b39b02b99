package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-tse-id/models"
)

// CSVHeader is the first row of CSV output.
var CSVHeader = []string{"id", "year", "content", "manufacturer", "date_issuance"}

// CSVWriter writes records to CSV, one row per record in key order.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(CSVHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records models.Collection) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, key := range records.Keys() {
		r := records[key]
		row := []string{r.ID, r.Year, r.Content, r.Manufacturer, r.DateIssuance}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes the collection as a single JSON object keyed by record
// key. See MarshalEscaped for the escaping rules.
type JSONWriter struct {
	out     io.Writer
	file    *os.File // nil when writing to a stream
	pretty  bool
	written int64
	mu      sync.Mutex
}

// NewJSONWriterTo writes to an open stream such as stdout. Output ends with a
// newline and Close leaves the stream open.
func NewJSONWriterTo(w io.Writer, pretty bool) *JSONWriter {
	return &JSONWriter{out: w, pretty: pretty}
}

// NewJSONWriter writes to filename. Use NewJSONWriterTo for streams.
func NewJSONWriter(filename string, pretty bool) (*JSONWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("json output requires a file name")
	}
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}
	return &JSONWriter{out: f, file: f, pretty: pretty}, nil
}

// Write encodes records. Stream output ends with a newline, file output
// does not.
func (jw *JSONWriter) Write(records models.Collection) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if records == nil {
		records = models.Collection{}
	}
	data, err := MarshalEscaped(records, jw.pretty)
	if err != nil {
		return err
	}
	if jw.file == nil {
		data = append(data, '\n')
	}
	n, err := jw.out.Write(data)
	jw.written += int64(n)
	if err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// Close closes the underlying file. Streams are left open.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.file == nil {
		return nil
	}
	return jw.file.Close()
}

// Validate ensures something was written.
func (jw *JSONWriter) Validate() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.written <= 0 {
		return fmt.Errorf("json output is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
