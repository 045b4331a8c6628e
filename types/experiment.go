package types

import (
	"context"
	"fmt"
	"os"
	"path"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BuildFunc constructs a fresh trainer for one run of an experiment. Every
// run gets its own environment, model and rng so runs stay independent.
type BuildFunc func(run int) (*Trainer, error)

// Experiment names one training configuration under comparison
type Experiment struct {
	Name  string
	Build BuildFunc
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, build BuildFunc) *Experiment {
	return &Experiment{Name: name, Build: build}
}

func (e *Experiment) run(ctx context.Context, run int) (*TrainResult, error) {
	trainer, err := e.Build(run)
	if err != nil {
		return nil, fmt.Errorf("building experiment %s: %w", e.Name, err)
	}
	fmt.Printf("Running experiment: %s, run %d\n", e.Name, run+1)
	result, err := trainer.Run(ctx)
	if cerr := trainer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return result, fmt.Errorf("experiment %s: %w", e.Name, err)
	}
	return result, nil
}

// Generic dataset that contains information extracted from a training run
type DataSet interface{}

// Analyzer compresses a training result to a DataSet
type Analyzer interface {
	Analyze(run int, name string, result *TrainResult)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between datasets with associated names
type Comparator func(run int, names []string, datasets []DataSet)

func NoopComparator() Comparator {
	return func(int, []string, []DataSet) {}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs       int
	RecordPath string
	// Parallel runs the experiments of one run concurrently
	Parallel bool
}

// Comparison contains the different experiments to compare. The training
// results are analyzed and the datasets handed to the comparators.
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	if config.Runs <= 0 {
		config.Runs = 1
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) error {
	if err := os.MkdirAll(c.cConfig.RecordPath, 0755); err != nil {
		return fmt.Errorf("preparing record path: %w", err)
	}
	if err := c.recordConfig(); err != nil {
		return fmt.Errorf("recording comparison config: %w", err)
	}

	names := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		names[i] = e.Name
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		results, err := c.runExperiments(ctx, run)
		if err != nil {
			return err
		}
		for name, analyzer := range c.analyzers {
			datasets := make([]DataSet, len(c.Experiments))
			for i, result := range results {
				analyzer.Analyze(run, names[i], result)
				datasets[i] = analyzer.DataSet()
				analyzer.Reset()
			}
			if comp, ok := c.comparators[name]; ok && comp != nil {
				comp(run, names, datasets)
			}
		}
	}
	return nil
}

func (c *Comparison) runExperiments(ctx context.Context, run int) ([]*TrainResult, error) {
	results := make([]*TrainResult, len(c.Experiments))

	if !c.cConfig.Parallel {
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			result, err := e.run(ctx, run)
			if err != nil {
				return nil, err
			}
			results[i] = result
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range c.Experiments {
		i, e := i, e
		g.Go(func() error {
			result, err := e.run(gctx, run)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	out := make(map[string]interface{})
	out["runs"] = c.cConfig.Runs
	out["parallel"] = c.cConfig.Parallel

	experiments := make([]string, 0, len(c.Experiments))
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyses := make([]string, 0, len(c.analyzers))
	for name := range c.analyzers {
		analyses = append(analyses, name)
	}
	out["analyses"] = analyses

	bs, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(c.cConfig.RecordPath, "comparison_config.yaml"), bs, 0644)
}
