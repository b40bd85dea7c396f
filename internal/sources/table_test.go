package sources

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	apperrors "balag/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		opts       TableOptions
		wantHeader []string
		wantRows   [][]string
		wantErr    error
		wantType   apperrors.ErrorType
	}{
		{
			name:       "all columns tab separated",
			input:      "a\tb\tc\n1\t2\t3\n4\t5\t6\n",
			wantHeader: []string{"a", "b", "c"},
			wantRows:   [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		},
		{
			name:       "selected columns reordered",
			input:      "a;b;c\n1;2;3\n",
			opts:       TableOptions{Separator: ';', Columns: []string{"c", "a"}},
			wantHeader: []string{"c", "a"},
			wantRows:   [][]string{{"3", "1"}},
		},
		{
			name:       "byte order mark and padded header",
			input:      "\ufeff a \tb\n1\t2\n",
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "2"}},
		},
		{
			name:       "short rows padded",
			input:      "a\tb\tc\n1\n",
			wantHeader: []string{"a", "b", "c"},
			wantRows:   [][]string{{"1", "", ""}},
		},
		{
			name:       "header only",
			input:      "a\tb\n",
			wantHeader: []string{"a", "b"},
		},
		{
			name:     "empty input",
			input:    "",
			wantErr:  apperrors.ErrEmptyTable,
			wantType: apperrors.ErrTypeParsing,
		},
		{
			name:     "missing column",
			input:    "a\tb\n1\t2\n",
			opts:     TableOptions{Columns: []string{"a", "z"}},
			wantErr:  apperrors.ErrMissingColumn,
			wantType: apperrors.ErrTypeParsing,
		},
		{
			name:     "too many fields",
			input:    "a\tb\n1\t2\t3\n",
			wantType: apperrors.ErrTypeParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable(strings.NewReader(tt.input), tt.opts)

			if tt.wantType != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, table.Header)
			assert.Equal(t, tt.wantRows, table.Rows)
			assert.Equal(t, len(tt.wantRows), table.Len())
		})
	}
}

func TestTable_LenNil(t *testing.T) {
	var empty *Table
	assert.Equal(t, 0, empty.Len())
}

func TestWriteTable(t *testing.T) {
	table := &Table{
		Header: []string{"id", "name"},
		Rows:   [][]string{{"1", "a"}, {"2", "b;c"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, table, ';'))
	assert.Equal(t, "id;name\n1;a\n2;\"b;c\"\n", buf.String())

	back, err := ReadTable(&buf, TableOptions{Separator: ';'})
	require.NoError(t, err)
	assert.Equal(t, table, back)
}
