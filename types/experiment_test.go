package types

import (
	"context"
	"os"
	"path"
	"testing"

	"golang.org/x/exp/rand"
)

func testBuild(run int) (*Trainer, error) {
	env := &fakeEnv{rewards: []float64{1, 1}, terminal: true}
	model := &fakeModel{fallback: []float64{0.5, 0.25}}
	return NewTrainer(&TrainerConfig{
		Iterations: 2,
		EpochLimit: 1,
		Collector: NewCollector(&CollectorConfig{
			Episodes:    1,
			Gamma:       1,
			NSteps:      true,
			Policy:      &scriptPolicy{actions: []int{0, 0}},
			Model:       model,
			Environment: env,
			Logger:      quietLogger(),
			Rand:        rand.New(rand.NewSource(1)),
		}),
		Model:  model,
		Logger: quietLogger(),
	}), nil
}

func TestComparisonRun(t *testing.T) {
	dir := t.TempDir()

	c := NewComparison(&ComparisonConfig{Runs: 2, RecordPath: dir})
	got := make(map[string][]DataSet)
	c.AddAnalysis("Reward", NewRewardAnalyzer(), func(run int, names []string, datasets []DataSet) {
		for i, name := range names {
			got[name] = append(got[name], datasets[i])
		}
	})
	c.AddAnalysis("Samples", NewSampleAnalyzer(), NoopComparator())
	c.AddExperiment(NewExperiment("first", testBuild))
	c.AddExperiment(NewExperiment("second", testBuild))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got["first"]) != 2 || len(got["second"]) != 2 {
		t.Fatalf("expected datasets for both experiments in both runs, got %d and %d",
			len(got["first"]), len(got["second"]))
	}
	series, ok := got["first"][0].(*RewardSeries)
	if !ok {
		t.Fatalf("expected a reward series dataset")
	}
	if len(series.Mean) != 2 || !almostEqual(series.Mean[0], 2) {
		t.Errorf("expected mean rewards [2 2], got %v", series.Mean)
	}

	if _, err := os.Stat(path.Join(dir, "comparison_config.yaml")); err != nil {
		t.Errorf("expected the comparison config to be recorded: %v", err)
	}
}

func TestComparisonParallel(t *testing.T) {
	dir := t.TempDir()

	c := NewComparison(&ComparisonConfig{Runs: 1, RecordPath: dir, Parallel: true})
	seen := make(map[string]bool)
	c.AddAnalysis("Reward", NewRewardAnalyzer(), func(run int, names []string, datasets []DataSet) {
		for i, name := range names {
			if datasets[i] != nil {
				seen[name] = true
			}
		}
	})
	c.AddExperiment(NewExperiment("first", testBuild))
	c.AddExperiment(NewExperiment("second", testBuild))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen["first"] || !seen["second"] {
		t.Errorf("expected results from both parallel experiments, got %v", seen)
	}
}

func TestRewardAnalyzerReset(t *testing.T) {
	analyzer := NewRewardAnalyzer()
	analyzer.Analyze(0, "exp", &TrainResult{Stats: []IterationStats{
		{MeanReward: 1, MaxReward: 2},
		{MeanReward: 3, MaxReward: 4},
	}})

	series := analyzer.DataSet().(*RewardSeries)
	if len(series.Mean) != 2 || series.Max[1] != 4 {
		t.Fatalf("unexpected series: %+v", series)
	}

	analyzer.Reset()
	fresh := analyzer.DataSet().(*RewardSeries)
	if len(fresh.Mean) != 0 {
		t.Errorf("expected an empty series after reset, got %+v", fresh)
	}
}

func TestLossAnalyzer(t *testing.T) {
	analyzer := NewLossAnalyzer()
	analyzer.Analyze(0, "exp", &TrainResult{Stats: []IterationStats{
		{StartLoss: 4, FinalLoss: 1},
	}})

	series := analyzer.DataSet().(*LossSeries)
	if len(series.Start) != 1 || series.Start[0] != 4 || series.Final[0] != 1 {
		t.Errorf("unexpected series: %+v", series)
	}
}

func TestSampleAnalyzer(t *testing.T) {
	analyzer := NewSampleAnalyzer()
	analyzer.Analyze(0, "exp", &TrainResult{Stats: []IterationStats{
		{Samples: 10},
		{Samples: 20},
	}})

	samples := analyzer.DataSet().([]float64)
	if len(samples) != 2 || samples[1] != 20 {
		t.Errorf("unexpected samples: %v", samples)
	}
}
