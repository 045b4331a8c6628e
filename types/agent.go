package types

import (
	"context"
	"fmt"
)

type AgentConfig struct {
	// Horizon caps the episode length, 0 or negative means unbounded
	Horizon     int
	Gamma       float64
	Policy      Policy
	Model       ValueFunction
	Environment Environment
}

// EpisodeResult holds the trace of one episode and how it ended
type EpisodeResult struct {
	Trace *Trace
	// Terminated is set when the environment reported the episode done
	Terminated bool
	// FinalValues is the prediction at the state where the horizon cut the
	// episode off. It is nil exactly when Terminated is true.
	FinalValues []float64
	// SumReward is the reward diagnostic accumulated forward during play
	// as reward + gamma*sum. Used only for reporting.
	SumReward float64
	Steps     int
}

// Agent plays episodes on an environment, choosing actions through a
// policy over the value function's predictions
type Agent struct {
	config *AgentConfig
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	return &Agent{config: config}
}

// RunEpisode plays a single episode and returns its trace together with the
// termination info needed to compute training targets
func (a *Agent) RunEpisode(ctx context.Context) (*EpisodeResult, error) {
	state, err := a.config.Environment.Reset()
	if err != nil {
		return nil, fmt.Errorf("resetting environment: %w", err)
	}
	a.config.Policy.Reset()

	trace := NewTrace()
	result := &EpisodeResult{Trace: trace}
	step := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		qvalues, err := a.config.Model.Predict(state)
		if err != nil {
			return nil, fmt.Errorf("predicting values at step %d: %w", step, err)
		}
		action, ok := a.config.Policy.NextAction(step, qvalues)
		if !ok {
			break
		}
		nextState, reward, done, err := a.config.Environment.Step(action)
		if err != nil {
			return nil, fmt.Errorf("stepping environment at step %d: %w", step, err)
		}

		trace.Append(state, qvalues, action, reward)
		result.SumReward = reward + a.config.Gamma*result.SumReward

		state = nextState
		step++

		if done {
			result.Terminated = true
			break
		}
		// the horizon cut needs the prediction at the state we stopped in,
		// it seeds the bootstrap of the training targets
		if a.config.Horizon > 0 && step >= a.config.Horizon {
			finalValues, err := a.config.Model.Predict(state)
			if err != nil {
				return nil, fmt.Errorf("predicting values at the horizon: %w", err)
			}
			result.FinalValues = finalValues
			break
		}
	}

	result.Steps = step
	return result, nil
}
