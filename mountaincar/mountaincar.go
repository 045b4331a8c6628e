package mountaincar

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"nstep-dqn/types"
)

const (
	minPosition  = -1.2
	maxPosition  = 0.6
	maxSpeed     = 0.07
	goalPosition = 0.5
	force        = 0.001
	slope        = 0.0025
	maxSteps     = 200
)

// Env is the underpowered car task: the car starts in a valley and has to
// build up momentum to reach the flag on the right hill. Actions push
// left (0), idle (1) or push right (2). Every step costs a reward of -1
// until the goal is reached or the step cap ends the episode.
type Env struct {
	position float64
	velocity float64
	steps    int
	rand     *rand.Rand
}

var _ types.Environment = &Env{}

func New(rng *rand.Rand) *Env {
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &Env{rand: rng}
}

func (e *Env) Reset() ([]float64, error) {
	e.position = e.rand.Float64()*0.2 - 0.6
	e.velocity = 0
	e.steps = 0
	return e.observation(), nil
}

func (e *Env) Step(action int) ([]float64, float64, bool, error) {
	if action < 0 || action >= e.NumActions() {
		return nil, 0, false, fmt.Errorf("invalid action %d", action)
	}

	e.velocity += float64(action-1)*force - math.Cos(3*e.position)*slope
	e.velocity = clamp(e.velocity, -maxSpeed, maxSpeed)
	e.position += e.velocity
	e.position = clamp(e.position, minPosition, maxPosition)
	if e.position <= minPosition && e.velocity < 0 {
		e.velocity = 0
	}
	e.steps++

	done := e.position >= goalPosition || e.steps >= maxSteps
	return e.observation(), -1.0, done, nil
}

func (e *Env) ObservationSize() int {
	return 2
}

func (e *Env) NumActions() int {
	return 3
}

func (e *Env) observation() []float64 {
	return []float64{e.position, e.velocity}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
