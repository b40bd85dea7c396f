package evaluation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
)

func labels(pos, neg int) []float64 {
	y := make([]float64, 0, pos+neg)
	for i := 0; i < pos; i++ {
		y = append(y, Positive)
	}
	for i := 0; i < neg; i++ {
		y = append(y, Negative)
	}
	return y
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		sampling string
		want     string
		wantErr  bool
	}{
		{sampling: "", want: SamplingRandom},
		{sampling: SamplingRandom, want: SamplingRandom},
		{sampling: SamplingBalanced, want: SamplingBalanced},
		{sampling: "stratified", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.sampling, func(t *testing.T) {
			s, err := NewSampler(config.EvaluationConfig{Sampling: tt.sampling, TrainFraction: 0.5})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}

func TestRandomSplit(t *testing.T) {
	y := labels(30, 70)
	s := RandomSplit{TrainFraction: 0.8, Seed: 42}

	train, test, err := s.Split(y)
	require.NoError(t, err)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		require.Equal(t, i, v)
	}

	train2, test2, err := s.Split(y)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	other, _, err := RandomSplit{TrainFraction: 0.8, Seed: 7}.Split(y)
	require.NoError(t, err)
	assert.NotEqual(t, train, other)
}

func TestBalancedSplit(t *testing.T) {
	y := labels(10, 90)
	train, test, err := BalancedSplit{TrainFraction: 0.5, Seed: 1}.Split(y)
	require.NoError(t, err)

	assert.Len(t, train, 10)
	assert.Len(t, test, 10)

	pos := 0
	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), train...), test...) {
		require.False(t, seen[i], "index %d used twice", i)
		seen[i] = true
		if y[i] == Positive {
			pos++
		}
	}
	assert.Equal(t, 10, pos)
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name    string
		sampler Sampler
		y       []float64
	}{
		{name: "fraction zero", sampler: RandomSplit{TrainFraction: 0}, y: labels(5, 5)},
		{name: "fraction one", sampler: RandomSplit{TrainFraction: 1}, y: labels(5, 5)},
		{name: "too few samples", sampler: RandomSplit{TrainFraction: 0.5}, y: labels(1, 0)},
		{name: "single class", sampler: BalancedSplit{TrainFraction: 0.5}, y: labels(0, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.sampler.Split(tt.y)
			assert.Error(t, err)
		})
	}
}
