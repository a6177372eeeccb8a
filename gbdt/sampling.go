package gbdt

import (
	"math/rand"
	"sort"
)

// SamplingStrategy draws the rows and features used by each tree. All draws
// come from one generator seeded from Config.Seed, so a run is reproducible.
type SamplingStrategy struct {
	rng               *rand.Rand
	subsampleFraction float64
	colsampleFraction float64
}

// NewSamplingStrategy creates a sampling strategy for cfg.
func NewSamplingStrategy(cfg Config) *SamplingStrategy {
	return &SamplingStrategy{
		rng:               rand.New(rand.NewSource(cfg.Seed)),
		subsampleFraction: cfg.SubsampleFraction,
		colsampleFraction: cfg.ColsampleFraction,
	}
}

// SampleFeatures returns the features a tree may split on, in ascending order.
func (s *SamplingStrategy) SampleFeatures(numFeatures int) []int {
	return s.sample(numFeatures, s.colsampleFraction)
}

// SampleInstances returns the rows a tree is fitted on, in ascending order.
func (s *SamplingStrategy) SampleInstances(numInstances int) []int {
	return s.sample(numInstances, s.subsampleFraction)
}

// sample draws max(1, floor(n*fraction)) distinct indices from [0, n) with a
// partial Fisher-Yates shuffle.
func (s *SamplingStrategy) sample(n int, fraction float64) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if fraction >= 1 || n == 0 {
		return perm
	}

	numSample := int(float64(n) * fraction)
	if numSample < 1 {
		numSample = 1
	}
	for i := 0; i < numSample; i++ {
		j := i + s.rng.Intn(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	picked := perm[:numSample]
	sort.Ints(picked)
	return picked
}
