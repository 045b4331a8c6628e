package grid

import (
	"fmt"

	"nstep-dqn/types"
)

const (
	actionUp = iota
	actionDown
	actionLeft
	actionRight
)

const maxSteps = 200

// Env is a sparse reward navigation task: a chain of rooms connected by
// doors. The agent starts in the lower left corner of the first room and
// has to reach the upper right corner of the last room. Stepping onto the
// upper right corner of any earlier room leads through a door into the
// next one. Actions move up (0), down (1), left (2) or right (3) and
// movement clamps at the walls. Every step costs a reward of -1 until the
// goal is reached or the step cap ends the episode.
type Env struct {
	height int
	width  int
	rooms  int

	row   int
	col   int
	room  int
	steps int
}

var _ types.Environment = &Env{}

func New(height, width, rooms int) *Env {
	if height < 2 {
		height = 2
	}
	if width < 2 {
		width = 2
	}
	if rooms < 1 {
		rooms = 1
	}
	return &Env{
		height: height,
		width:  width,
		rooms:  rooms,
	}
}

func (e *Env) Reset() ([]float64, error) {
	e.row = 0
	e.col = 0
	e.room = 0
	e.steps = 0
	return e.observation(), nil
}

func (e *Env) Step(action int) ([]float64, float64, bool, error) {
	switch action {
	case actionUp:
		e.row = min(e.height-1, e.row+1)
	case actionDown:
		e.row = max(0, e.row-1)
	case actionLeft:
		e.col = max(0, e.col-1)
	case actionRight:
		e.col = min(e.width-1, e.col+1)
	default:
		return nil, 0, false, fmt.Errorf("invalid action %d", action)
	}
	if e.atCorner() && e.room < e.rooms-1 {
		e.row = 0
		e.col = 0
		e.room++
	}
	e.steps++

	done := e.atGoal() || e.steps >= maxSteps
	return e.observation(), -1.0, done, nil
}

func (e *Env) ObservationSize() int {
	return 3
}

func (e *Env) NumActions() int {
	return 4
}

func (e *Env) atCorner() bool {
	return e.row == e.height-1 && e.col == e.width-1
}

func (e *Env) atGoal() bool {
	return e.room == e.rooms-1 && e.atCorner()
}

func (e *Env) observation() []float64 {
	return []float64{float64(e.row), float64(e.col), float64(e.room)}
}
