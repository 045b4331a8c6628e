package commands

import "github.com/spf13/cobra"

var (
	envName    string
	tau        float64
	iterations int
	episodes   int
	horizon    int
	gamma      float64
	epochs     int
	batchSize  int
	hidden     int
	history    int
	seed       int64
	saveFile   string
	runs       int
	configFile string
	backend    string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use: "nstep-dqn",
	}
	rootCommand.PersistentFlags().StringVarP(&envName, "env", "e", "CartPole-v0", "Environment name to use")
	rootCommand.PersistentFlags().Float64VarP(&tau, "tau", "t", 0.2, "Ratio of random steps, default=0.2")
	rootCommand.PersistentFlags().IntVarP(&iterations, "iters", "i", 100, "Count of iterations to take, default=100")
	rootCommand.PersistentFlags().IntVar(&episodes, "episodes", 20, "Number of episodes per iteration")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 300, "Step limit of each episode")
	rootCommand.PersistentFlags().Float64Var(&gamma, "gamma", 1.0, "Discount factor")
	rootCommand.PersistentFlags().IntVar(&epochs, "epochs", 10, "Epoch limit of each fit")
	rootCommand.PersistentFlags().IntVar(&batchSize, "batch-size", 128, "Minibatch size of each fit")
	rootCommand.PersistentFlags().IntVar(&hidden, "hidden", 50, "Width of the hidden layers")
	rootCommand.PersistentFlags().IntVar(&history, "history", 2, "Number of stacked observations")
	rootCommand.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed, 0 picks one from the clock")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "Training config yaml overriding the flag values")
	rootCommand.PersistentFlags().StringVar(&backend, "backend", "gonum", "Value network backend, gonum or gorgonia")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(CompareCommand())
	return rootCommand
}
