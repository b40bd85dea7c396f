package evaluation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "balag/internal/errors"
)

// Metrics is the test score of one model
type Metrics struct {
	Model     string        `json:"model"`
	Train     int           `json:"train"`
	Test      int           `json:"test"`
	Errors    int           `json:"errors"`
	MeanError float64       `json:"mean_error"`
	MAE       float64       `json:"mae"`
	TP        int           `json:"tp"`
	FP        int           `json:"fp"`
	FN        int           `json:"fn"`
	TN        int           `json:"tn"`
	Duration  time.Duration `json:"duration"`
}

// Accuracy returns the share of correctly classified test samples
func (m Metrics) Accuracy() float64 {
	if m.Test == 0 {
		return 0
	}
	return float64(m.TP+m.TN) / float64(m.Test)
}

// Precision returns TP / (TP + FP), 0 when nothing was predicted positive
func (m Metrics) Precision() float64 {
	if m.TP+m.FP == 0 {
		return 0
	}
	return float64(m.TP) / float64(m.TP+m.FP)
}

// Recall returns TP / (TP + FN), 0 without positive samples
func (m Metrics) Recall() float64 {
	if m.TP+m.FN == 0 {
		return 0
	}
	return float64(m.TP) / float64(m.TP+m.FN)
}

// MetricsHeaders lists the columns of Metrics.Record
var MetricsHeaders = []string{"model", "train", "test", "errors", "mean_error", "mae", "tp", "fp", "fn", "tn", "accuracy", "precision", "recall", "duration_ms"}

// Record formats the metrics in MetricsHeaders order
func (m Metrics) Record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		m.Model,
		strconv.Itoa(m.Train),
		strconv.Itoa(m.Test),
		strconv.Itoa(m.Errors),
		f(m.MeanError),
		f(m.MAE),
		strconv.Itoa(m.TP),
		strconv.Itoa(m.FP),
		strconv.Itoa(m.FN),
		strconv.Itoa(m.TN),
		f(m.Accuracy()),
		f(m.Precision()),
		f(m.Recall()),
		strconv.FormatInt(m.Duration.Milliseconds(), 10),
	}
}

// Evaluate splits data once with sampler, fits every model on the training
// set concurrently and scores it on the testing set. A prediction above
// threshold is classified Positive. Results follow the order of models.
func Evaluate(ctx context.Context, models []Model, data *Dataset, sampler Sampler, threshold float64) ([]Metrics, error) {
	if len(models) == 0 {
		return nil, apperrors.NewAppValidationError("no model to evaluate")
	}
	if data.Len() == 0 {
		return nil, apperrors.NewEmptyResultError("evaluation")
	}

	trainIdx, testIdx, err := sampler.Split(data.Y)
	if err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("cannot split dataset: %v", err)).
			WithContext("sampler", sampler.Name())
	}
	train := data.Subset(trainIdx)
	test := data.Subset(testIdx)

	results := make([]Metrics, len(models))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, model := range models {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			if err := model.Fit(train.X, train.Y); err != nil {
				return fmt.Errorf("fitting %s: %w", model.Name(), err)
			}
			pred, err := model.Predict(test.X)
			if err != nil {
				return fmt.Errorf("predicting with %s: %w", model.Name(), err)
			}
			if len(pred) != test.Len() {
				return fmt.Errorf("%s returned %d predictions for %d samples", model.Name(), len(pred), test.Len())
			}

			m := Score(pred, test.Y, threshold)
			m.Model = model.Name()
			m.Train = train.Len()
			m.Duration = time.Since(start)
			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Score compares raw predictions with ±1 labels. Predictions above threshold
// count as Positive.
func Score(pred, y []float64, threshold float64) Metrics {
	m := Metrics{Test: len(y)}
	if len(y) == 0 {
		return m
	}

	absErr := 0.0
	for i, target := range y {
		absErr += math.Abs(pred[i] - target)

		label := Negative
		if pred[i] > threshold {
			label = Positive
		}

		switch {
		case label == Positive && target == Positive:
			m.TP++
		case label == Positive:
			m.FP++
		case target == Positive:
			m.FN++
		default:
			m.TN++
		}
	}

	m.Errors = m.FP + m.FN
	m.MeanError = float64(m.Errors) / float64(len(y))
	m.MAE = absErr / float64(len(y))
	return m
}
