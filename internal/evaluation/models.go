package evaluation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"balag/internal/config"
)

// ErrNotFitted is returned when predicting with a model that was never fitted
var ErrNotFitted = errors.New("model is not fitted")

// Model is a learning algorithm compared by Evaluate
type Model interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// NewModels returns the models compared by default
func NewModels(cfg config.EvaluationConfig) []Model {
	return []Model{
		&LinearRegression{},
		&Ridge{Alpha: cfg.RidgeAlpha},
		&GaussianNB{},
		&MajorityBaseline{},
	}
}

// LinearRegression is an ordinary least squares fit with intercept
type LinearRegression struct {
	coef []float64
}

// Name implements Model
func (m *LinearRegression) Name() string { return "LinearRegression" }

// Fit implements Model
func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	coef, err := leastSquares(X, y, 0)
	if err != nil {
		return err
	}
	m.coef = coef
	return nil
}

// Predict implements Model
func (m *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	return linearPredict(m.coef, X)
}

// Coefficients returns the intercept followed by one weight per feature
func (m *LinearRegression) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

// Ridge is a least squares fit with an L2 penalty of Alpha on the feature
// weights; the intercept is not penalized
type Ridge struct {
	Alpha float64
	coef  []float64
}

// Name implements Model
func (m *Ridge) Name() string { return fmt.Sprintf("Ridge(alpha=%g)", m.Alpha) }

// Fit implements Model
func (m *Ridge) Fit(X [][]float64, y []float64) error {
	if m.Alpha < 0 {
		return fmt.Errorf("negative ridge penalty %v", m.Alpha)
	}
	coef, err := leastSquares(X, y, m.Alpha)
	if err != nil {
		return err
	}
	m.coef = coef
	return nil
}

// Predict implements Model
func (m *Ridge) Predict(X [][]float64) ([]float64, error) {
	return linearPredict(m.coef, X)
}

// Coefficients returns the intercept followed by one weight per feature
func (m *Ridge) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

// Linear is a fitted model whose prediction is an affine function of the features
type Linear interface {
	Model
	Coefficients() []float64
}

// leastSquares solves min |Aw - y|² + alpha |w[1:]|² where A is X with a
// leading column of ones, by QR on the system augmented with the penalty rows
func leastSquares(X [][]float64, y []float64, alpha float64) ([]float64, error) {
	p, err := validate(X, y)
	if err != nil {
		return nil, err
	}

	rows := len(X)
	if alpha > 0 {
		rows += p
	}
	if rows < p+1 {
		return nil, fmt.Errorf("%d samples cannot fit %d coefficients", len(X), p+1)
	}

	a := mat.NewDense(rows, p+1, nil)
	b := mat.NewVecDense(rows, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
		b.SetVec(i, y[i])
	}
	if alpha > 0 {
		penalty := math.Sqrt(alpha)
		for j := 0; j < p; j++ {
			a.Set(len(X)+j, j+1, penalty)
		}
	}

	var w mat.VecDense
	if err := w.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares: %w", err)
		}
		if math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("least squares: singular design matrix")
		}
	}

	return mat.Col(nil, 0, &w), nil
}

func linearPredict(coef []float64, X [][]float64) ([]float64, error) {
	if coef == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(coef)-1 {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(row), len(coef)-1)
		}
		v := coef[0]
		for j, x := range row {
			v += coef[j+1] * x
		}
		out[i] = v
	}
	return out, nil
}

// varSmoothing is added to every variance, relative to the largest feature
// variance, so constant features do not yield zero variances
const varSmoothing = 1e-9

// GaussianNB is a naive Bayes classifier with normally distributed features.
// Predictions are class labels.
type GaussianNB struct {
	classes []gaussianClass
}

type gaussianClass struct {
	label    float64
	logPrior float64
	features []distuv.Normal
}

// Name implements Model
func (m *GaussianNB) Name() string { return "GaussianNB" }

// Fit implements Model
func (m *GaussianNB) Fit(X [][]float64, y []float64) error {
	p, err := validate(X, y)
	if err != nil {
		return err
	}

	maxVar := 0.0
	column := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, row := range X {
			column[i] = row[j]
		}
		_, v := stat.PopMeanVariance(column, nil)
		maxVar = math.Max(maxVar, v)
	}
	epsilon := varSmoothing * math.Max(maxVar, 1)

	m.classes = nil
	for _, label := range []float64{Negative, Positive} {
		var members [][]float64
		for i, row := range X {
			if y[i] == label {
				members = append(members, row)
			}
		}
		if len(members) == 0 {
			continue
		}

		class := gaussianClass{
			label:    label,
			logPrior: math.Log(float64(len(members)) / float64(len(X))),
			features: make([]distuv.Normal, p),
		}
		values := make([]float64, len(members))
		for j := 0; j < p; j++ {
			for i, row := range members {
				values[i] = row[j]
			}
			mu, v := stat.PopMeanVariance(values, nil)
			class.features[j] = distuv.Normal{Mu: mu, Sigma: math.Sqrt(v + epsilon)}
		}
		m.classes = append(m.classes, class)
	}
	return nil
}

// Predict implements Model
func (m *GaussianNB) Predict(X [][]float64) ([]float64, error) {
	if len(m.classes) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		best, bestScore := 0.0, math.Inf(-1)
		for _, c := range m.classes {
			if len(row) != len(c.features) {
				return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(row), len(c.features))
			}
			score := c.logPrior
			for j, x := range row {
				score += c.features[j].LogProb(x)
			}
			if score > bestScore {
				best, bestScore = c.label, score
			}
		}
		out[i] = best
	}
	return out, nil
}

// MajorityBaseline always predicts the most frequent training label
type MajorityBaseline struct {
	label float64
}

// Name implements Model
func (m *MajorityBaseline) Name() string { return "MajorityBaseline" }

// Fit implements Model
func (m *MajorityBaseline) Fit(X [][]float64, y []float64) error {
	if _, err := validate(X, y); err != nil {
		return err
	}
	pos := 0
	for _, v := range y {
		if v == Positive {
			pos++
		}
	}
	m.label = Negative
	if 2*pos >= len(y) {
		m.label = Positive
	}
	return nil
}

// Predict implements Model
func (m *MajorityBaseline) Predict(X [][]float64) ([]float64, error) {
	if m.label == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i := range out {
		out[i] = m.label
	}
	return out, nil
}
