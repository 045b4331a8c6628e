package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/aunum/log"
	"github.com/spf13/cobra"

	"nstep-dqn/server"
	"nstep-dqn/types"
)

// Train runs a single training experiment and plots its learning curves
func Train(ctx context.Context, monitorDir string, nSteps bool, policyName string, listenAddr string) {
	runCtx, cancel, s, err := resolveSettings(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer cancel()
	if err := recordSettings(s); err != nil {
		log.Fatal(err)
	}

	name := "1-step"
	if nSteps {
		name = "n-step"
	}

	var onIteration func(types.IterationStats)
	if listenAddr != "" {
		srv := server.New(runCtx, listenAddr, s.environment)
		srv.SetExperiment(name)
		srv.Start()
		defer srv.Stop()
		onIteration = srv.Observe
	}

	policy, err := policyBuilder(policyName, s.tau)
	if err != nil {
		log.Fatal(err)
	}

	c := types.NewComparison(&types.ComparisonConfig{
		Runs:       runs,
		RecordPath: saveFile,
	})
	c.AddAnalysis("Reward", types.NewRewardAnalyzer(), types.RewardComparator(saveFile))
	c.AddAnalysis("Loss", types.NewLossAnalyzer(), types.LossComparator(saveFile))
	c.AddAnalysis("Samples", types.NewSampleAnalyzer(), types.SampleComparator(saveFile))

	c.AddExperiment(types.NewExperiment(name, func(run int) (*types.Trainer, error) {
		return buildTrainer(s, run, nSteps, policy, monitorDir, onIteration, run == 0)
	}))

	if err := c.Run(runCtx); err != nil {
		log.Error(err)
	}
}

func TrainCommand() *cobra.Command {
	var monitorDir string
	var nSteps bool
	var policyName string
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a value network on the chosen environment",
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

			Train(ctx, monitorDir, nSteps, policyName, listenAddr)

			close(doneCh)
		},
	}
	cmd.PersistentFlags().StringVarP(&monitorDir, "monitor", "m", "", "Enable the episode recorder and save data into the provided dir, default=disabled")
	cmd.PersistentFlags().BoolVar(&nSteps, "n-steps", false, "Train on n-step returns, default=1-step")
	cmd.PersistentFlags().StringVar(&policyName, "policy", "egreedy", "Exploration policy: egreedy, greedy, softmax or random")
	cmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "Serve training status on the given address, default=disabled")
	return cmd
}
