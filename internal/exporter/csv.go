package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"balag/internal/config"
)

// CSVWriter provides delimited-text export functionality
type CSVWriter struct {
	paths     *config.Paths
	delimiter rune
}

// NewCSVWriter creates a new comma separated writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths, delimiter: ','}
}

// NewTSVWriter creates a writer producing tab separated files, the layout of
// every file the pipeline hands to the next stage
func NewTSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths, delimiter: '\t'}
}

// WithDelimiter returns a copy of the writer using delimiter
func (w *CSVWriter) WithDelimiter(delimiter rune) *CSVWriter {
	clone := *w
	clone.delimiter = delimiter
	return &clone
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
}

// WriteCSV writes data to a file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = w.delimiter

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSimpleCSV writes a file with headers and records, replacing any
// previous content
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: headers,
		Records: records,
	})
}

// StreamWriter provides streaming writing for large tables
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming writer and writes the headers
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	slog.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = w.delimiter

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Path returns the file being written
func (s *StreamWriter) Path() string {
	return s.file.Name()
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Path returns where filePath is written
func (w *CSVWriter) Path(filePath string) string {
	return w.resolvePath(filePath)
}

// resolvePath maps a relative path to the processed data directory, or to the
// reports directory when it starts with "reports/"
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}

	if rest, ok := strings.CutPrefix(filepath.ToSlash(filePath), "reports/"); ok {
		return w.paths.GetReportPath(rest)
	}
	return w.paths.GetProcessedPath(filePath)
}
