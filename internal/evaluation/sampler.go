package evaluation

import (
	"fmt"
	"math/rand/v2"

	"balag/internal/config"
)

// Sampling strategies
const (
	SamplingRandom   = "random"
	SamplingBalanced = "balanced"
)

// Sampler splits the samples of a dataset into a training and a testing set
type Sampler interface {
	Name() string
	Split(y []float64) (train, test []int, err error)
}

// NewSampler returns the configured sampling strategy
func NewSampler(cfg config.EvaluationConfig) (Sampler, error) {
	switch cfg.Sampling {
	case SamplingRandom, "":
		return RandomSplit{TrainFraction: cfg.TrainFraction, Seed: cfg.Seed}, nil
	case SamplingBalanced:
		return BalancedSplit{TrainFraction: cfg.TrainFraction, Seed: cfg.Seed}, nil
	default:
		return nil, fmt.Errorf("unknown sampling strategy %q", cfg.Sampling)
	}
}

// RandomSplit shuffles every sample and trains on the first TrainFraction
type RandomSplit struct {
	TrainFraction float64
	Seed          uint64
}

// Name implements Sampler
func (s RandomSplit) Name() string { return SamplingRandom }

// Split implements Sampler
func (s RandomSplit) Split(y []float64) ([]int, []int, error) {
	rng := newRand(s.Seed)
	return cut(rng.Perm(len(y)), s.TrainFraction)
}

// BalancedSplit undersamples the majority class so both classes are equally
// represented, then splits like RandomSplit
type BalancedSplit struct {
	TrainFraction float64
	Seed          uint64
}

// Name implements Sampler
func (s BalancedSplit) Name() string { return SamplingBalanced }

// Split implements Sampler
func (s BalancedSplit) Split(y []float64) ([]int, []int, error) {
	rng := newRand(s.Seed)

	var pos, neg []int
	for i, v := range y {
		if v == Positive {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return nil, nil, fmt.Errorf("balanced sampling needs both classes (%d positive, %d negative)", len(pos), len(neg))
	}

	rng.Shuffle(len(pos), func(i, j int) { pos[i], pos[j] = pos[j], pos[i] })
	rng.Shuffle(len(neg), func(i, j int) { neg[i], neg[j] = neg[j], neg[i] })

	n := min(len(pos), len(neg))
	idx := append(pos[:n:n], neg[:n]...)
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	return cut(idx, s.TrainFraction)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// cut trains on the first fraction of idx and tests on the rest
func cut(idx []int, fraction float64) ([]int, []int, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction %v outside (0, 1)", fraction)
	}
	n := int(float64(len(idx)) * fraction)
	if n == 0 || n == len(idx) {
		return nil, nil, fmt.Errorf("%d samples cannot be split with train fraction %v", len(idx), fraction)
	}
	return idx[:n], idx[n:], nil
}
