package policies

import (
	"time"

	"golang.org/x/exp/rand"

	"nstep-dqn/types"
)

// RandomPolicy ignores the predictions and explores uniformly. Used as a
// baseline when comparing training variants.
type RandomPolicy struct {
	rand *rand.Rand
}

var _ types.Policy = &RandomPolicy{}

func NewRandomPolicy(rnd *rand.Rand) *RandomPolicy {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &RandomPolicy{rand: rnd}
}

func (r *RandomPolicy) NextAction(step int, qvalues []float64) (int, bool) {
	if len(qvalues) == 0 {
		return 0, false
	}
	return r.rand.Intn(len(qvalues)), true
}

func (r *RandomPolicy) Reset() {}
