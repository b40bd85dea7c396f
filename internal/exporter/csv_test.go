package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
)

func setupTestEnv(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	return NewCSVWriter(paths), paths
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}

	csvWriter := NewCSVWriter(paths)
	assert.Equal(t, paths, csvWriter.paths)
	assert.Equal(t, ',', csvWriter.delimiter)

	tsvWriter := NewTSVWriter(paths)
	assert.Equal(t, '\t', tsvWriter.delimiter)

	semi := csvWriter.WithDelimiter(';')
	assert.Equal(t, ';', semi.delimiter)
	assert.Equal(t, ',', csvWriter.delimiter)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, paths := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, fullPath string)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options:  WriteOptions{
				Headers: []string{"entrep_id", "montantPieceEur"},
				Records: [][]string{{"1", "5000"}, {"2", "7000"}},
			},
			validate: func(t *testing.T, fullPath string) {
				lines := readLines(t, fullPath)
				assert.Equal(t, []string{"entrep_id,montantPieceEur", "1,5000", "2,7000"}, lines)
			},
		},
		{
			name:     "write without headers",
			filePath: "test_no_headers.csv",
			options:  WriteOptions{
				Records: [][]string{{"a", "b"}, {"c", "d"}},
			},
			validate: func(t *testing.T, fullPath string) {
				assert.Equal(t, []string{"a,b", "c,d"}, readLines(t, fullPath))
			},
		},
		{
			name:     "empty records",
			filePath: "test_empty.csv",
			options:  WriteOptions{
				Headers: []string{"Col1", "Col2"},
				Records: [][]string{},
			},
			validate: func(t *testing.T, fullPath string) {
				assert.Equal(t, []string{"Col1,Col2"}, readLines(t, fullPath))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)
			tt.validate(t, paths.GetProcessedPath(tt.filePath))
		})
	}
}

func TestCSVWriter_Overwrite(t *testing.T) {
	writer, paths := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("evaluation.csv", []string{"a", "b"}, [][]string{{"1", "2"}, {"5", "6"}}))
	require.NoError(t, writer.WriteSimpleCSV("evaluation.csv", []string{"a", "b"}, [][]string{{"3", "4"}}))

	assert.Equal(t, []string{"a,b", "3,4"}, readLines(t, paths.GetProcessedPath("evaluation.csv")))
}

func TestCSVWriter_TabDelimited(t *testing.T) {
	writer, paths := setupTestEnv(t)
	tsv := NewTSVWriter(paths)

	require.NoError(t, tsv.WriteSimpleCSV("out.csv", []string{"a", "b"}, [][]string{{"x y", "1,5"}}))
	assert.Equal(t, []string{"a\tb", "x y\t1,5"}, readLines(t, paths.GetProcessedPath("out.csv")))

	require.NoError(t, writer.WriteSimpleCSV("out2.csv", []string{"a"}, [][]string{{"1,5"}}))
	assert.Equal(t, []string{"a", `"1,5"`}, readLines(t, paths.GetProcessedPath("out2.csv")))
}

func TestCSVWriter_resolvePath(t *testing.T) {
	paths := config.NewPaths("/srv/balag")
	writer := NewCSVWriter(paths)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "relative goes to processed", input: "cameliaBalAGKevin.csv", expected: paths.GetProcessedPath("cameliaBalAGKevin.csv")},
		{name: "reports prefix", input: "reports/cleaning.csv", expected: paths.GetReportPath("cleaning.csv")},
		{name: "absolute kept", input: "/tmp/out.csv", expected: "/tmp/out.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.Clean(tt.expected), writer.resolvePath(tt.input))
		})
	}

	assert.Equal(t, "rel.csv", NewCSVWriter(nil).resolvePath("rel.csv"))
}

func TestCSVWriter_CreateStreamWriter(t *testing.T) {
	writer, paths := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter("nested/stream.csv", []string{"Name", "Value"})
	require.NoError(t, err)

	for _, record := range [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		require.NoError(t, stream.WriteRecord(record))
	}
	assert.Equal(t, 3, stream.Rows())
	assert.Equal(t, paths.GetProcessedPath("nested/stream.csv"), stream.Path())
	require.NoError(t, stream.Close())

	lines := readLines(t, paths.GetProcessedPath("nested/stream.csv"))
	assert.Equal(t, []string{"Name,Value", "a,1", "b,2", "c,3"}, lines)
}
