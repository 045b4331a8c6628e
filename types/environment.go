package types

// Environment is a control task that an agent interacts with in episodes.
// Observations are flat float64 vectors, actions are indices.
type Environment interface {
	// Reset starts a new episode and returns the initial observation
	Reset() ([]float64, error)
	// Step applies the action and returns the next observation,
	// the reward and whether the episode ended
	Step(action int) ([]float64, float64, bool, error)
	// ObservationSize is the length of the observation vectors
	ObservationSize() int
	// NumActions is the number of discrete actions
	NumActions() int
}

// ValueFunction approximates action values for observed states.
type ValueFunction interface {
	// Predict returns one value per action for the given state
	Predict(state []float64) ([]float64, error)
	// Fit runs one training pass over the batch and returns the loss history
	Fit(states, targets [][]float64) ([]float64, error)
}

// Policy chooses an action index from a vector of predicted action values.
type Policy interface {
	// NextAction returns false only when the value vector is empty
	NextAction(step int, qvalues []float64) (int, bool)
	// Reset clears any internal state between experiment runs
	Reset()
}
