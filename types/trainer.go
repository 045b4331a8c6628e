package types

import (
	"context"
	"io"
	"log"

	"gonum.org/v1/gonum/floats"
)

type TrainerConfig struct {
	Iterations int
	EpochLimit int
	// LossStopRatio ends the fit loop once the first epoch's max loss
	// divided by the current epoch's min loss exceeds it
	LossStopRatio float64
	Collector     *Collector
	Model         ValueFunction
	Logger        *log.Logger
	// OnIteration is invoked after each iteration when set
	OnIteration func(IterationStats)
}

// IterationStats summarizes one collect and fit iteration
type IterationStats struct {
	Iteration  int     `json:"iteration"`
	Samples    int     `json:"samples"`
	Epochs     int     `json:"epochs"`
	MeanReward float64 `json:"mean_reward"`
	MaxReward  float64 `json:"max_reward"`
	StartLoss  float64 `json:"start_loss"`
	FinalLoss  float64 `json:"final_loss"`
}

// TrainResult collects the per-iteration statistics of a full run
type TrainResult struct {
	Stats []IterationStats
}

// Trainer alternates batch collection and value function fitting
type Trainer struct {
	config *TrainerConfig
}

func NewTrainer(config *TrainerConfig) *Trainer {
	if config.EpochLimit <= 0 {
		config.EpochLimit = 10
	}
	if config.LossStopRatio <= 0 {
		config.LossStopRatio = 1.5
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Trainer{config: config}
}

// Run executes the configured number of iterations. Each iteration collects
// a fresh batch and fits the model on it until the loss has dropped enough
// or the epoch limit is reached. The first epoch never stops early.
func (t *Trainer) Run(ctx context.Context) (*TrainResult, error) {
	result := &TrainResult{Stats: make([]IterationStats, 0, t.config.Iterations)}

	for iteration := 0; iteration < t.config.Iterations; iteration++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		batch, err := t.config.Collector.Collect(ctx, iteration)
		if err != nil {
			return result, err
		}

		stats := IterationStats{
			Iteration:  iteration,
			Samples:    batch.Len(),
			MeanReward: batch.MeanReward,
			MaxReward:  batch.MaxReward,
		}

		if batch.Len() == 0 {
			t.config.Logger.Printf("%d: empty batch, skipping fit", iteration)
			result.Stats = append(result.Stats, stats)
			if t.config.OnIteration != nil {
				t.config.OnIteration(stats)
			}
			continue
		}

		var startLoss, loss float64
		for epoch := 0; epoch < t.config.EpochLimit; epoch++ {
			history, err := t.config.Model.Fit(batch.States, batch.Targets)
			if err != nil {
				return result, err
			}
			loss = floats.Min(history)
			stats.Epochs++
			if epoch == 0 {
				startLoss = floats.Max(history)
				continue
			}
			if startLoss/loss > t.config.LossStopRatio {
				break
			}
		}
		stats.StartLoss = startLoss
		stats.FinalLoss = loss

		result.Stats = append(result.Stats, stats)
		if t.config.OnIteration != nil {
			t.config.OnIteration(stats)
		}
	}
	return result, nil
}

// Close releases the environment when it holds open resources, which is the
// case when episodes are being recorded
func (t *Trainer) Close() error {
	if closer, ok := t.config.Collector.config.Environment.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
