package sources

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// Compression identifies how a blob is encoded
type Compression string

const (
	CompressionNone  Compression = ""
	CompressionGzip  Compression = "gz"
	CompressionBzip2 Compression = "bz2"
)

// CompressionFor picks the compression from the file suffix
func CompressionFor(name string) Compression {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(lower, ".bz2"):
		return CompressionBzip2
	default:
		return CompressionNone
	}
}

// Decompress wraps r with the decoder for c. Closing the result closes r.
func Decompress(r io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return r, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("not a gzip stream: %w", err)
		}
		return &stackedReadCloser{Reader: zr, closers: []io.Closer{zr, r}}, nil
	case CompressionBzip2:
		return &stackedReadCloser{Reader: bzip2.NewReader(r), closers: []io.Closer{r}}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

// Compress wraps w with the encoder for c. Only gzip can be written.
func Compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("writing %q compressed files is not supported", c)
	}
}

type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
