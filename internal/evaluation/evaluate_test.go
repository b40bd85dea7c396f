package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
	apperrors "balag/internal/errors"
)

func TestScore(t *testing.T) {
	pred := []float64{0.8, -0.2, 0.1, -1.5, 0}
	y := []float64{Positive, Positive, Negative, Negative, Positive}

	m := Score(pred, y, 0)

	assert.Equal(t, 5, m.Test)
	assert.Equal(t, 1, m.TP)
	assert.Equal(t, 1, m.FP)
	assert.Equal(t, 2, m.FN)
	assert.Equal(t, 1, m.TN)
	assert.Equal(t, 3, m.Errors)
	assert.InDelta(t, 0.6, m.MeanError, 1e-12)
	// |0.8-1| + |-0.2-1| + |0.1+1| + |-1.5+1| + |0-1|
	assert.InDelta(t, 4.0/5, m.MAE, 1e-12)
	assert.InDelta(t, 0.4, m.Accuracy(), 1e-12)
	assert.InDelta(t, 0.5, m.Precision(), 1e-12)
	assert.InDelta(t, 1.0/3, m.Recall(), 1e-12)
}

func TestScoreThreshold(t *testing.T) {
	pred := []float64{0.3, 0.6}
	y := []float64{Negative, Positive}

	assert.Equal(t, 1, Score(pred, y, 0).FP)
	assert.Equal(t, 0, Score(pred, y, 0.5).Errors)
}

func TestMetricsEmpty(t *testing.T) {
	m := Score(nil, nil, 0)
	assert.Zero(t, m.Accuracy())
	assert.Zero(t, m.Precision())
	assert.Zero(t, m.Recall())
}

func TestMetricsRecord(t *testing.T) {
	m := Metrics{Model: "GaussianNB", Train: 8, Test: 2, TP: 1, TN: 1}
	record := m.Record()
	require.Len(t, record, len(MetricsHeaders))
	assert.Equal(t, "GaussianNB", record[0])
	assert.Equal(t, "8", record[1])
	assert.Equal(t, "1.000000", record[10])
}

func separable(n int) *Dataset {
	data := &Dataset{Columns: []string{"echeance"}}
	for i := 0; i < n; i++ {
		x, y := float64(i%10), Negative
		if i%2 == 0 {
			x, y = 100+float64(i%10), Positive
		}
		data.X = append(data.X, []float64{x})
		data.Y = append(data.Y, y)
	}
	return data
}

func TestEvaluate(t *testing.T) {
	cfg := config.EvaluationConfig{TrainFraction: 0.75, Sampling: SamplingRandom, Seed: 3, RidgeAlpha: 1}
	sampler, err := NewSampler(cfg)
	require.NoError(t, err)

	results, err := Evaluate(context.Background(), NewModels(cfg), separable(40), sampler, cfg.Threshold)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, m := range results[:3] {
		assert.Equal(t, 30, m.Train, m.Model)
		assert.Equal(t, 10, m.Test, m.Model)
		assert.Zero(t, m.Errors, m.Model)
		assert.Equal(t, 10, m.TP+m.TN+m.FP+m.FN)
	}

	assert.Equal(t, "LinearRegression", results[0].Model)
	assert.Equal(t, "MajorityBaseline", results[3].Model)
	assert.Equal(t, 10, results[3].Test)
}

type failingModel struct{}

func (failingModel) Name() string                          { return "failing" }
func (failingModel) Fit([][]float64, []float64) error       { return errors.New("boom") }
func (failingModel) Predict([][]float64) ([]float64, error) { return nil, ErrNotFitted }

type truncatingModel struct{ MajorityBaseline }

func (m *truncatingModel) Predict(X [][]float64) ([]float64, error) {
	pred, err := m.MajorityBaseline.Predict(X)
	if err != nil {
		return nil, err
	}
	return pred[:len(pred)-1], nil
}

func TestEvaluateErrors(t *testing.T) {
	data := separable(20)
	sampler := RandomSplit{TrainFraction: 0.5, Seed: 1}

	_, err := Evaluate(context.Background(), nil, data, sampler, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = Evaluate(context.Background(), []Model{&MajorityBaseline{}}, &Dataset{}, sampler, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))

	_, err = Evaluate(context.Background(), []Model{&MajorityBaseline{}}, data, RandomSplit{TrainFraction: 2}, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = Evaluate(context.Background(), []Model{&MajorityBaseline{}, failingModel{}}, data, sampler, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fitting failing")

	_, err = Evaluate(context.Background(), []Model{&truncatingModel{}}, data, sampler, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MajorityBaseline returned 9 predictions for 10 samples")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Evaluate(ctx, []Model{&MajorityBaseline{}}, data, sampler, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
