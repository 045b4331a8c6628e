package policies

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"nstep-dqn/types"
)

// SoftmaxPolicy samples actions from a Boltzmann distribution over the
// predicted values. Higher temperatures explore more.
type SoftmaxPolicy struct {
	temperature float64
	src         rand.Source
}

var _ types.Policy = &SoftmaxPolicy{}

func NewSoftmaxPolicy(temperature float64, src rand.Source) *SoftmaxPolicy {
	if temperature <= 0 {
		temperature = 1
	}
	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return &SoftmaxPolicy{
		temperature: temperature,
		src:         src,
	}
}

func (s *SoftmaxPolicy) NextAction(step int, qvalues []float64) (int, bool) {
	if len(qvalues) == 0 {
		return 0, false
	}

	// shift by the max so the exponentials stay in range
	maxVal := qvalues[ArgMax(qvalues)]
	sum := float64(0)
	weights := make([]float64, len(qvalues))
	for i, v := range qvalues {
		exp := math.Exp((v - maxVal) / s.temperature)
		weights[i] = exp
		sum += exp
	}
	for i := range weights {
		weights[i] = weights[i] / sum
	}

	i, ok := sampleuv.NewWeighted(weights, s.src).Take()
	if !ok {
		return 0, false
	}
	return i, true
}

func (s *SoftmaxPolicy) Reset() {}
