package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "balag/internal/errors"
)

// Logged is implemented by sources and sinks carrying their own logger
type Logged interface {
	Logger() *slog.Logger
}

func loggerOf(v any) *slog.Logger {
	if l, ok := v.(Logged); ok && l.Logger() != nil {
		return l.Logger()
	}
	return slog.Default()
}

// Fetch opens name on src, decompresses it according to its suffix and reads
// it as a table. It logs through the source's logger when src is Logged.
func Fetch(ctx context.Context, src Source, name string, opts TableOptions) (*Table, error) {
	start := time.Now()
	logger := loggerOf(src)

	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, apperrors.NewFetchError(fmt.Sprintf("failed to open %s", name), err).
			WithContext("file", name)
	}

	compression := CompressionFor(name)
	body, err := Decompress(rc, compression)
	if err != nil {
		rc.Close()
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to decompress %s", name), err).
			WithContext("file", name)
	}
	defer body.Close()

	table, err := ReadTable(&contextReader{ctx: ctx, r: body}, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if table.Len() == 0 {
		return nil, apperrors.NewEmptyResultError("fetch " + name)
	}

	logger.InfoContext(ctx, "Table fetched",
		slog.String("file", name),
		slog.String("compression", string(compression)),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Header)),
		slog.Duration("elapsed", time.Since(start)))

	return table, nil
}

// Store writes table to name on dst as tab separated text, gzip compressed
// when name ends in .gz
func Store(ctx context.Context, dst Sink, name string, table *Table) error {
	if table.Len() == 0 {
		return apperrors.NewEmptyResultError("store " + name)
	}

	var buf bytes.Buffer
	w, err := Compress(&buf, CompressionFor(name))
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("cannot encode %s", name), err)
	}
	if err := WriteTable(w, table, '\t'); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to encode %s", name), err)
	}
	if err := w.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to encode %s", name), err)
	}

	if err := dst.Put(ctx, name, &buf); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to store %s", name), err).
			WithContext("file", name)
	}

	loggerOf(dst).InfoContext(ctx, "Table stored",
		slog.String("file", name),
		slog.Int("rows", table.Len()))
	return nil
}
