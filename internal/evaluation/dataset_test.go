package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "balag/internal/errors"
)

const featureFile = "idSociete\tlogMontant\techeance\tyear\tY\n" +
	"1\t3.0\t30\t2012\tTrue\n" +
	"1\t3.5\t60\t2012\tFalse\n" +
	"2\tnan\t30\t2013\tTrue\n" +
	"2\t4.0\t90\t2013\tmaybe\n" +
	"3\t2.0\t0\t2014\tfalse\n"

func TestLoadDataset(t *testing.T) {
	data, dropped, err := LoadDataset(strings.NewReader(featureFile), []string{"echeance", "logMontant"})
	require.NoError(t, err)

	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"echeance", "logMontant"}, data.Columns)
	assert.Equal(t, [][]float64{{30, 3}, {60, 3.5}, {0, 2}}, data.X)
	assert.Equal(t, []float64{Positive, Negative, Negative}, data.Y)
	assert.Equal(t, 3, data.Len())
	assert.Equal(t, 1, data.Positives())
}

func TestLoadDatasetErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		columns []string
		errType apperrors.ErrorType
	}{
		{
			name:    "no feature",
			input:   featureFile,
			columns: nil,
			errType: apperrors.ErrTypeValidation,
		},
		{
			name:    "unknown feature",
			input:   featureFile,
			columns: []string{"capital"},
			errType: apperrors.ErrTypeParsing,
		},
		{
			name:    "only unusable rows",
			input:   "echeance\tY\nabc\tTrue\n",
			columns: []string{"echeance"},
			errType: apperrors.ErrTypeEmptyResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadDataset(strings.NewReader(tt.input), tt.columns)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), "got %v", err)
		})
	}

	_, _, err := LoadDataset(strings.NewReader(featureFile), []string{"capital"})
	assert.ErrorIs(t, err, apperrors.ErrMissingColumn)
}

func TestDatasetSubset(t *testing.T) {
	data := &Dataset{
		Columns: []string{"a"},
		X:       [][]float64{{1}, {2}, {3}},
		Y:       []float64{Positive, Negative, Positive},
	}

	sub := data.Subset([]int{2, 0})
	assert.Equal(t, [][]float64{{3}, {1}}, sub.X)
	assert.Equal(t, []float64{Positive, Positive}, sub.Y)
	assert.Equal(t, data.Columns, sub.Columns)

	var empty *Dataset
	assert.Zero(t, empty.Len())
}

func TestValidate(t *testing.T) {
	p, err := validate([][]float64{{1, 2}, {3, 4}}, []float64{1, -1})
	require.NoError(t, err)
	assert.Equal(t, 2, p)

	_, err = validate(nil, nil)
	assert.Error(t, err)

	_, err = validate([][]float64{{1, 2}, {3}}, nil)
	assert.Error(t, err)

	_, err = validate([][]float64{{1}}, []float64{1, -1})
	assert.Error(t, err)
}
