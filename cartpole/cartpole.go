package cartpole

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"nstep-dqn/types"
)

const (
	gravity        = 9.8
	massCart       = 1.0
	massPole       = 0.1
	length         = 0.5
	totalMass      = massCart + massPole
	poleMassLength = massPole * length
	forceMax       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0
)

// Env is the pole balancing task: a pole hinged on a cart that slides on a
// frictionless track. Action 0 pushes the cart left, action 1 right. The
// episode ends when the pole tips too far, the cart leaves the track or
// the step cap is reached. Every step is worth a reward of 1.
type Env struct {
	x        float64
	xDot     float64
	theta    float64
	thetaDot float64
	steps    int
	maxSteps int
	rand     *rand.Rand
}

var _ types.Environment = &Env{}

// New returns the 200 step variant
func New(rng *rand.Rand) *Env {
	return newEnv(200, rng)
}

// NewV1 returns the 500 step variant
func NewV1(rng *rand.Rand) *Env {
	return newEnv(500, rng)
}

func newEnv(maxSteps int, rng *rand.Rand) *Env {
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &Env{
		maxSteps: maxSteps,
		rand:     rng,
	}
}

func (e *Env) Reset() ([]float64, error) {
	e.x = e.rand.Float64()*0.1 - 0.05
	e.xDot = e.rand.Float64()*0.1 - 0.05
	e.theta = e.rand.Float64()*0.1 - 0.05
	e.thetaDot = e.rand.Float64()*0.1 - 0.05
	e.steps = 0
	return e.observation(), nil
}

func (e *Env) Step(action int) ([]float64, float64, bool, error) {
	if action < 0 || action >= e.NumActions() {
		return nil, 0, false, fmt.Errorf("invalid action %d", action)
	}

	force := forceMax
	if action == 0 {
		force = -forceMax
	}

	cosTheta := math.Cos(e.theta)
	sinTheta := math.Sin(e.theta)

	temp := (force + poleMassLength*e.thetaDot*e.thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (length * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	e.x += tau * e.xDot
	e.xDot += tau * xAcc
	e.theta += tau * e.thetaDot
	e.thetaDot += tau * thetaAcc
	e.steps++

	done := e.x < -xThreshold || e.x > xThreshold ||
		e.theta < -thetaThreshold || e.theta > thetaThreshold ||
		e.steps >= e.maxSteps
	return e.observation(), 1.0, done, nil
}

func (e *Env) ObservationSize() int {
	return 4
}

func (e *Env) NumActions() int {
	return 2
}

func (e *Env) observation() []float64 {
	return []float64{e.x, e.xDot, e.theta, e.thetaDot}
}
