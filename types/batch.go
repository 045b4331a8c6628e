package types

import (
	"context"
	"log"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type CollectorConfig struct {
	Episodes int
	Horizon  int
	Gamma    float64
	// NSteps switches the targets from 1-step bootstrapped values
	// to n-step discounted returns
	NSteps      bool
	Policy      Policy
	Model       ValueFunction
	Environment Environment
	Logger      *log.Logger
	Rand        *rand.Rand
}

// Batch is the training data of one iteration: aligned states and target
// vectors, plus the reward statistics of the episodes that produced them
type Batch struct {
	States     [][]float64
	Targets    [][]float64
	MeanReward float64
	MaxReward  float64
}

func (b *Batch) Len() int {
	return len(b.States)
}

// Collector plays episodes with the policy over the model's predictions and
// unrolls the resulting traces into training samples
type Collector struct {
	config *CollectorConfig
	agent  *Agent
}

func NewCollector(config *CollectorConfig) *Collector {
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &Collector{
		config: config,
		agent: NewAgent(&AgentConfig{
			Horizon:     config.Horizon,
			Gamma:       config.Gamma,
			Policy:      config.Policy,
			Model:       config.Model,
			Environment: config.Environment,
		}),
	}
}

// Collect plays the configured number of episodes and returns the shuffled
// batch of (state, target) samples
func (c *Collector) Collect(ctx context.Context, iteration int) (*Batch, error) {
	states := make([][]float64, 0)
	targets := make([][]float64, 0)
	finalRewards := make([]float64, 0, c.config.Episodes)

	for e := 0; e < c.config.Episodes; e++ {
		result, err := c.agent.RunEpisode(ctx)
		if err != nil {
			return nil, err
		}
		finalRewards = append(finalRewards, result.SumReward)

		epStates, epTargets := c.episodeSamples(result)
		states = append(states, epStates...)
		targets = append(targets, epTargets...)
	}

	// one permutation over both slices keeps the pairs aligned
	c.config.Rand.Shuffle(len(states), func(i, j int) {
		states[i], states[j] = states[j], states[i]
		targets[i], targets[j] = targets[j], targets[i]
	})

	batch := &Batch{States: states, Targets: targets}
	if len(finalRewards) == 0 {
		c.config.Logger.Printf("%d: no episodes played, skipping reward stats", iteration)
		return batch, nil
	}
	batch.MeanReward = stat.Mean(finalRewards, nil)
	batch.MaxReward = floats.Max(finalRewards)
	c.config.Logger.Printf("%d: have %d samples, mean final reward: %.3f, max: %.3f",
		iteration, len(states), batch.MeanReward, batch.MaxReward)
	return batch, nil
}

// episodeSamples unrolls an episode backwards into training samples. Each
// transition bootstraps on the value vector recorded at its successor state,
// seeded by the prediction at the horizon cut for unfinished episodes.
func (c *Collector) episodeSamples(result *EpisodeResult) ([][]float64, [][]float64) {
	trace := result.Trace
	states := make([][]float64, 0, trace.Len())
	targets := make([][]float64, 0, trace.Len())

	rSum := float64(0)
	lastValues := result.FinalValues
	if lastValues != nil {
		rSum = floats.Max(lastValues)
	}

	for i := trace.Len() - 1; i > -1; i-- {
		state, qvalues, action, reward, _ := trace.Get(i)
		rSum = rSum*c.config.Gamma + reward

		target := reward
		if c.config.NSteps {
			target = rSum
		} else if lastValues != nil {
			target += c.config.Gamma * floats.Max(lastValues)
		}

		targetValues := make([]float64, len(qvalues))
		copy(targetValues, qvalues)
		targetValues[action] = target

		states = append(states, state)
		targets = append(targets, targetValues)
		lastValues = qvalues
	}
	return states, targets
}
