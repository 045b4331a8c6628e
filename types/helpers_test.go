package types

import (
	"io"
	"log"
)

// fakeEnv steps through a fixed reward sequence. Observations carry the
// step index so tests can tell states apart.
type fakeEnv struct {
	rewards  []float64
	terminal bool
	pos      int
	resets   int
}

var _ Environment = &fakeEnv{}

func (f *fakeEnv) Reset() ([]float64, error) {
	f.pos = 0
	f.resets++
	return []float64{0}, nil
}

func (f *fakeEnv) Step(action int) ([]float64, float64, bool, error) {
	reward := f.rewards[f.pos]
	f.pos++
	done := f.terminal && f.pos == len(f.rewards)
	return []float64{float64(f.pos)}, reward, done, nil
}

func (f *fakeEnv) ObservationSize() int { return 1 }

func (f *fakeEnv) NumActions() int { return 2 }

// fakeModel predicts fixed value vectors keyed by the step index and hands
// out scripted loss histories on fit
type fakeModel struct {
	values     map[int][]float64
	fallback   []float64
	histories  [][]float64
	fits       int
	gotStates  [][]float64
	gotTargets [][]float64
}

var _ ValueFunction = &fakeModel{}

func (m *fakeModel) Predict(state []float64) ([]float64, error) {
	if v, ok := m.values[int(state[0])]; ok {
		return append([]float64(nil), v...), nil
	}
	return append([]float64(nil), m.fallback...), nil
}

func (m *fakeModel) Fit(states, targets [][]float64) ([]float64, error) {
	m.gotStates = states
	m.gotTargets = targets
	history := []float64{1}
	if m.fits < len(m.histories) {
		history = m.histories[m.fits]
	}
	m.fits++
	return history, nil
}

// scriptPolicy plays a fixed action sequence and stops when it runs out
type scriptPolicy struct {
	actions []int
	pos     int
}

var _ Policy = &scriptPolicy{}

func (p *scriptPolicy) NextAction(step int, qvalues []float64) (int, bool) {
	if p.pos >= len(p.actions) {
		return 0, false
	}
	action := p.actions[p.pos]
	p.pos++
	return action, true
}

func (p *scriptPolicy) Reset() { p.pos = 0 }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
