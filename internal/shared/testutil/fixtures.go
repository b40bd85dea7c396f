package testutil

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteExtract writes content as dir/name, gzipped when name ends in .gz,
// and returns the path
func WriteExtract(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer file.Close()

	if !strings.HasSuffix(name, ".gz") {
		if _, err := file.WriteString(content); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
		return path
	}

	zw := gzip.NewWriter(file)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("compressing %s: %v", path, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compressing %s: %v", path, err)
	}
	return path
}
