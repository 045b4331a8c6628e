package types

// Trace of an episode as tuples (state, qvalues, action, reward)
type Trace struct {
	states  [][]float64
	qvalues [][]float64
	actions []int
	rewards []float64
}

func NewTrace() *Trace {
	return &Trace{
		states:  make([][]float64, 0),
		qvalues: make([][]float64, 0),
		actions: make([]int, 0),
		rewards: make([]float64, 0),
	}
}

func (t *Trace) Append(state, qvalues []float64, action int, reward float64) {
	t.states = append(t.states, state)
	t.qvalues = append(t.qvalues, qvalues)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) ([]float64, []float64, int, float64, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, nil, 0, 0, false
	}
	return t.states[i], t.qvalues[i], t.actions[i], t.rewards[i], true
}

func (t *Trace) Last() ([]float64, []float64, int, float64, bool) {
	if len(t.states) < 1 {
		return nil, nil, 0, 0, false
	}
	return t.Get(len(t.states) - 1)
}

func (t *Trace) Slice(from, to int) *Trace {
	return &Trace{
		states:  t.states[from:to],
		qvalues: t.qvalues[from:to],
		actions: t.actions[from:to],
		rewards: t.rewards[from:to],
	}
}

// TotalReward sums the rewards of the trace
func (t *Trace) TotalReward() float64 {
	total := float64(0)
	for _, r := range t.rewards {
		total += r
	}
	return total
}
