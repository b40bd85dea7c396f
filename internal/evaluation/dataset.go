package evaluation

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	apperrors "balag/internal/errors"
	"balag/internal/sources"
	"balag/pkg/contracts/domain"
)

// Class labels
const (
	Positive = 1.0
	Negative = -1.0
)

// Dataset is a feature matrix with its ±1 labels
type Dataset struct {
	Columns []string
	X       [][]float64
	Y       []float64
}

// Len returns the number of samples
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Y)
}

// Subset returns the samples at idx, sharing the feature rows
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Columns: d.Columns,
		X:       make([][]float64, len(idx)),
		Y:       make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

// Positives counts the samples labelled Positive
func (d *Dataset) Positives() int {
	n := 0
	for _, y := range d.Y {
		if y == Positive {
			n++
		}
	}
	return n
}

// LoadDataset reads a tab separated feature file, keeping columns as
// features and the label column as target. Rows with a non finite feature or
// an unreadable label are dropped and counted.
func LoadDataset(r io.Reader, columns []string) (*Dataset, int, error) {
	if len(columns) == 0 {
		return nil, 0, apperrors.NewAppValidationError("no feature column selected")
	}

	wanted := append(append([]string(nil), columns...), domain.FeatLabel)
	table, err := sources.ReadTable(r, sources.TableOptions{Columns: wanted})
	if err != nil {
		return nil, 0, err
	}

	data := &Dataset{Columns: append([]string(nil), columns...)}
	dropped := 0
	label := len(columns)

	for _, row := range table.Rows {
		y, ok := parseLabel(row[label])
		if !ok {
			dropped++
			continue
		}

		x := make([]float64, len(columns))
		for i := range columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
			x[i] = v
		}
		if !ok {
			dropped++
			continue
		}

		data.X = append(data.X, x)
		data.Y = append(data.Y, y)
	}

	if data.Len() == 0 {
		return nil, dropped, apperrors.NewEmptyResultError("dataset loading")
	}
	return data, dropped, nil
}

// parseLabel maps a boolean paid flag to ±1
func parseLabel(s string) (float64, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if b {
		return Positive, true
	}
	return Negative, true
}

// validate checks the matrix is rectangular and matches y
func validate(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("no sample to fit")
	}
	if y != nil && len(y) != len(X) {
		return 0, fmt.Errorf("%d samples for %d labels", len(X), len(y))
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("sample %d has %d features, want %d", i, len(row), p)
		}
	}
	return p, nil
}
