package policies

import (
	"time"

	"golang.org/x/exp/rand"

	"nstep-dqn/types"
)

// EpsilonGreedyPolicy picks a uniformly random action with probability
// epsilon and the value-maximizing action otherwise. Ties break towards
// the lowest index.
type EpsilonGreedyPolicy struct {
	epsilon float64
	rand    *rand.Rand
}

var _ types.Policy = &EpsilonGreedyPolicy{}

func NewEpsilonGreedyPolicy(epsilon float64, rnd *rand.Rand) *EpsilonGreedyPolicy {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &EpsilonGreedyPolicy{
		epsilon: epsilon,
		rand:    rnd,
	}
}

// NewGreedyPolicy always exploits the predictions
func NewGreedyPolicy() *EpsilonGreedyPolicy {
	return NewEpsilonGreedyPolicy(0, nil)
}

func (p *EpsilonGreedyPolicy) NextAction(step int, qvalues []float64) (int, bool) {
	if len(qvalues) == 0 {
		return 0, false
	}
	if p.rand.Float64() < p.epsilon {
		return p.rand.Intn(len(qvalues)), true
	}
	return ArgMax(qvalues), true
}

func (p *EpsilonGreedyPolicy) Reset() {}

// ArgMax returns the index of the largest value, the first one on ties
func ArgMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
