package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/aunum/log"
	"github.com/spf13/cobra"

	"nstep-dqn/types"
)

// Compare trains the 1-step and n-step variants side by side and plots the
// learning curves against each other
func Compare(ctx context.Context, baseline bool, parallel bool) {
	runCtx, cancel, s, err := resolveSettings(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer cancel()
	if err := recordSettings(s); err != nil {
		log.Fatal(err)
	}

	egreedy, err := policyBuilder("egreedy", s.tau)
	if err != nil {
		log.Fatal(err)
	}

	c := types.NewComparison(&types.ComparisonConfig{
		Runs:       runs,
		RecordPath: saveFile,
		Parallel:   parallel,
	})
	c.AddAnalysis("Reward", types.NewRewardAnalyzer(), types.RewardComparator(saveFile))
	c.AddAnalysis("Loss", types.NewLossAnalyzer(), types.LossComparator(saveFile))
	c.AddAnalysis("Samples", types.NewSampleAnalyzer(), types.SampleComparator(saveFile))

	c.AddExperiment(types.NewExperiment("1-step", func(run int) (*types.Trainer, error) {
		return buildTrainer(s, run, false, egreedy, "", nil, false)
	}))
	c.AddExperiment(types.NewExperiment("n-step", func(run int) (*types.Trainer, error) {
		return buildTrainer(s, run, true, egreedy, "", nil, false)
	}))

	if baseline {
		random, err := policyBuilder("random", 0)
		if err != nil {
			log.Fatal(err)
		}
		c.AddExperiment(types.NewExperiment("random", func(run int) (*types.Trainer, error) {
			return buildTrainer(s, run, false, random, "", nil, false)
		}))
	}

	if err := c.Run(runCtx); err != nil {
		log.Error(err)
	}
}

func CompareCommand() *cobra.Command {
	var baseline bool
	var parallel bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare 1-step and n-step training on the same environment",
		Run: func(cmd *cobra.Command, args []string) {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)

			doneCh := make(chan struct{})

			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-sigCh:
				case <-doneCh:
				}
				cancel()
			}()

			Compare(ctx, baseline, parallel)

			close(doneCh)
		},
	}
	cmd.PersistentFlags().BoolVar(&baseline, "baseline", false, "Add a random policy baseline to the comparison")
	cmd.PersistentFlags().BoolVar(&parallel, "parallel", false, "Run the experiments of one run concurrently")
	return cmd
}
