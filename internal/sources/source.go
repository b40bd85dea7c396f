package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Source opens named blobs
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Sink stores named blobs
type Sink interface {
	Put(ctx context.Context, name string, r io.Reader) error
}

// LocalSource reads and writes files under a directory
type LocalSource struct {
	Dir       string
	logger    *slog.Logger
	validator *FileValidator
}

// NewLocalSource creates a source rooted at dir
func NewLocalSource(dir string, logger *slog.Logger) *LocalSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalSource{
		Dir:       dir,
		logger:    logger,
		validator: NewFileValidator(logger),
	}
}

// Logger returns the logger the source reports to
func (s *LocalSource) Logger() *slog.Logger { return s.logger }

// CheckDir verifies Dir is an existing directory and logs how many files it holds
func (s *LocalSource) CheckDir() error {
	return s.validator.ValidateInputDirectory(s.Dir, "*")
}

func (s *LocalSource) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Open opens a table file after checking it exists and has a table extension
func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(name)
	if err := s.validator.ValidateTableFile(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	s.logger.DebugContext(ctx, "Opened local file", slog.String("file", path))
	return file, nil
}

// Put writes r to name, creating parent directories
func (s *LocalSource) Put(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(name)
	if err := s.validator.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	written, err := io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	s.logger.InfoContext(ctx, "File written",
		slog.String("file", path),
		slog.Int64("bytes", written))
	return nil
}

// contextReader aborts reads once its context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
