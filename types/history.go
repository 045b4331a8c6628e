package types

import "fmt"

// HistoryEnv stacks the last K observations of the wrapped environment into
// one flat state vector, oldest first. On reset the window is filled with
// K copies of the initial observation.
type HistoryEnv struct {
	inner  Environment
	steps  int
	window [][]float64
}

var _ Environment = &HistoryEnv{}

func NewHistoryEnv(inner Environment, steps int) *HistoryEnv {
	if steps < 1 {
		steps = 1
	}
	return &HistoryEnv{
		inner:  inner,
		steps:  steps,
		window: make([][]float64, 0, steps),
	}
}

func (h *HistoryEnv) Reset() ([]float64, error) {
	obs, err := h.inner.Reset()
	if err != nil {
		return nil, err
	}
	snap := snapshot(obs)
	h.window = h.window[:0]
	for i := 0; i < h.steps; i++ {
		h.window = append(h.window, snap)
	}
	return h.stacked(), nil
}

func (h *HistoryEnv) Step(action int) ([]float64, float64, bool, error) {
	if len(h.window) != h.steps {
		return nil, 0, false, fmt.Errorf("step called before reset")
	}
	obs, reward, done, err := h.inner.Step(action)
	if err != nil {
		return nil, 0, false, err
	}
	copy(h.window, h.window[1:])
	h.window[h.steps-1] = snapshot(obs)
	return h.stacked(), reward, done, nil
}

func (h *HistoryEnv) ObservationSize() int {
	return h.steps * h.inner.ObservationSize()
}

func (h *HistoryEnv) NumActions() int {
	return h.inner.NumActions()
}

func (h *HistoryEnv) stacked() []float64 {
	out := make([]float64, 0, h.steps*h.inner.ObservationSize())
	for _, obs := range h.window {
		out = append(out, obs...)
	}
	return out
}

func snapshot(obs []float64) []float64 {
	snap := make([]float64, len(obs))
	copy(snap, obs)
	return snap
}
