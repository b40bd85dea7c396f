package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var tableExtensions = map[string]bool{
	".csv": true,
	".tsv": true,
	".txt": true,
}

// FileValidator checks local inputs and outputs before the pipeline touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that dir exists and, when pattern is set,
// logs how many entries match it. No match is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string, pattern string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}

	if pattern == "" {
		return nil
	}

	count, err := v.CountFiles(dir, pattern)
	if err != nil {
		return err
	}
	if count == 0 {
		v.logger.Warn("No files matching pattern found",
			slog.String("directory", dir),
			slog.String("pattern", pattern))
		return nil
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count),
		slog.String("pattern", pattern))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	marker := filepath.Join(dir, ".write_test")
	file, err := os.Create(marker)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(marker)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is an existing readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateTableFile checks that path exists and names a delimited table,
// optionally compressed (data.csv, data.tsv.gz, scores.csv.bz2).
func (v *FileValidator) ValidateTableFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	name := strings.ToLower(filepath.Base(path))
	if c := CompressionFor(name); c != CompressionNone {
		name = strings.TrimSuffix(name, "."+string(c))
	}

	ext := filepath.Ext(name)
	if !tableExtensions[ext] {
		v.logger.Error("File is not a table",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a table file (extension: %q)", path, ext)
	}
	return nil
}

// CountFiles counts regular files matching pattern in dir
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	fullPattern := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	count := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			count++
		}
	}
	return count, nil
}
