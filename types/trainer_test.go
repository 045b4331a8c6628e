package types

import (
	"context"
	"testing"

	"golang.org/x/exp/rand"
)

func testTrainer(model *fakeModel, iterations, epochLimit, episodes int) *Trainer {
	env := &fakeEnv{rewards: []float64{1}, terminal: true}
	return NewTrainer(&TrainerConfig{
		Iterations: iterations,
		EpochLimit: epochLimit,
		Collector: NewCollector(&CollectorConfig{
			Episodes:    episodes,
			Gamma:       1,
			NSteps:      true,
			Policy:      &scriptPolicy{actions: []int{0}},
			Model:       model,
			Environment: env,
			Logger:      quietLogger(),
			Rand:        rand.New(rand.NewSource(1)),
		}),
		Model:  model,
		Logger: quietLogger(),
	})
}

func TestTrainerStopsOnLossDrop(t *testing.T) {
	model := &fakeModel{
		fallback:  []float64{0.5, 0.25},
		histories: [][]float64{{4, 2}, {1}, {1}},
	}
	trainer := testTrainer(model, 1, 10, 1)

	result, err := trainer.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats := result.Stats[0]
	if stats.Epochs != 2 {
		t.Errorf("expected the fit to stop after 2 epochs, got %d", stats.Epochs)
	}
	if stats.StartLoss != 4 || stats.FinalLoss != 1 {
		t.Errorf("expected losses 4 and 1, got %v and %v", stats.StartLoss, stats.FinalLoss)
	}
}

func TestTrainerFirstEpochNeverStops(t *testing.T) {
	// the first history already clears the stop ratio, but the reference
	// loss is only established there, so a second epoch must run
	model := &fakeModel{
		fallback:  []float64{0.5, 0.25},
		histories: [][]float64{{10, 1}, {1}},
	}
	trainer := testTrainer(model, 1, 10, 1)

	result, err := trainer.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stats[0].Epochs != 2 {
		t.Errorf("expected 2 epochs, got %d", result.Stats[0].Epochs)
	}
}

func TestTrainerEpochLimit(t *testing.T) {
	model := &fakeModel{fallback: []float64{0.5, 0.25}}
	trainer := testTrainer(model, 1, 3, 1)

	result, err := trainer.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stats[0].Epochs != 3 {
		t.Errorf("expected the epoch limit to cap the fit at 3, got %d", result.Stats[0].Epochs)
	}
}

func TestTrainerSkipsFitOnEmptyBatch(t *testing.T) {
	model := &fakeModel{fallback: []float64{0.5, 0.25}}
	trainer := testTrainer(model, 2, 10, 0)

	result, err := trainer.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.fits != 0 {
		t.Errorf("expected no fit calls on empty batches, got %d", model.fits)
	}
	if len(result.Stats) != 2 {
		t.Fatalf("expected stats for both iterations, got %d", len(result.Stats))
	}
	if result.Stats[1].Samples != 0 || result.Stats[1].Epochs != 0 {
		t.Errorf("expected empty iteration stats, got %+v", result.Stats[1])
	}
}

func TestTrainerOnIteration(t *testing.T) {
	model := &fakeModel{fallback: []float64{0.5, 0.25}}
	trainer := testTrainer(model, 2, 1, 1)

	seen := make([]int, 0)
	trainer.config.OnIteration = func(stats IterationStats) {
		seen = append(seen, stats.Iteration)
	}

	if _, err := trainer.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Errorf("expected callbacks for iterations 0 and 1, got %v", seen)
	}
}

func TestTrainerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeModel{fallback: []float64{0.5, 0.25}}
	trainer := testTrainer(model, 5, 1, 1)

	result, err := trainer.Run(ctx)
	if err == nil {
		t.Fatalf("expected an error from the cancelled context")
	}
	if len(result.Stats) != 0 {
		t.Errorf("expected no completed iterations, got %d", len(result.Stats))
	}
}
