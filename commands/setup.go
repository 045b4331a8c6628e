package commands

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aunum/log"
	"golang.org/x/exp/rand"

	"nstep-dqn/cartpole"
	"nstep-dqn/config"
	"nstep-dqn/grid"
	"nstep-dqn/mountaincar"
	"nstep-dqn/policies"
	"nstep-dqn/qnet"
	"nstep-dqn/types"
	"nstep-dqn/util"
)

// settings are the flag values after the optional config file overlay
type settings struct {
	environment string
	tau         float64
	gamma       float64
	iterations  int
	episodes    int
	horizon     int
	epochs      int
	batchSize   int
	hidden      int
	history     int
	seed        int64
}

// resolveSettings merges the config file into the flag values. The returned
// context carries the training deadline when the config sets one.
func resolveSettings(ctx context.Context) (context.Context, context.CancelFunc, *settings, error) {
	s := &settings{
		environment: envName,
		tau:         tau,
		gamma:       gamma,
		iterations:  iterations,
		episodes:    episodes,
		horizon:     horizon,
		epochs:      epochs,
		batchSize:   batchSize,
		hidden:      hidden,
		history:     history,
		seed:        seed,
	}
	if configFile == "" {
		runCtx, cancel := context.WithCancel(ctx)
		return runCtx, cancel, s, nil
	}

	cfg, err := config.FromYaml(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading config %s: %w", configFile, err)
	}
	if cfg.Environment != "" {
		s.environment = cfg.Environment
	}
	s.tau = cfg.GetHyperParamOrDefault("tau", s.tau)
	s.gamma = cfg.GetHyperParamOrDefault("gamma", s.gamma)
	s.iterations = int(cfg.GetHyperParamOrDefault("iterations", float64(s.iterations)))
	s.episodes = int(cfg.GetHyperParamOrDefault("episodes", float64(s.episodes)))
	s.horizon = int(cfg.GetHyperParamOrDefault("horizon", float64(s.horizon)))
	s.epochs = int(cfg.GetHyperParamOrDefault("epochs", float64(s.epochs)))
	s.batchSize = int(cfg.GetHyperParamOrDefault("batch_size", float64(s.batchSize)))
	s.hidden = int(cfg.GetHyperParamOrDefault("hidden", float64(s.hidden)))
	s.history = int(cfg.GetHyperParamOrDefault("history", float64(s.history)))

	runCtx, cancel, err := cfg.WithTrainingDeadline(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return runCtx, cancel, s, nil
}

// recordSettings saves the resolved parameters next to the results
func recordSettings(s *settings) error {
	if err := util.EnsureDir(saveFile); err != nil {
		return err
	}
	cfg := &config.TrainingConfig{
		Environment: s.environment,
		HyperParams: []config.HyperParameter{
			{Key: "tau", Val: s.tau},
			{Key: "gamma", Val: s.gamma},
			{Key: "iterations", Val: float64(s.iterations)},
			{Key: "episodes", Val: float64(s.episodes)},
			{Key: "horizon", Val: float64(s.horizon)},
			{Key: "epochs", Val: float64(s.epochs)},
			{Key: "batch_size", Val: float64(s.batchSize)},
			{Key: "hidden", Val: float64(s.hidden)},
			{Key: "history", Val: float64(s.history)},
		},
	}
	return cfg.Save(path.Join(saveFile, "training_config.yaml"))
}

func makeEnvironment(name string, historySteps int, monitorDir string, rnd *rand.Rand) (types.Environment, error) {
	var env types.Environment
	switch name {
	case "CartPole-v0":
		env = cartpole.New(rnd)
	case "CartPole-v1":
		env = cartpole.NewV1(rnd)
	case "MountainCar-v0":
		env = mountaincar.New(rnd)
	case "Rooms-v0":
		env = grid.New(6, 6, 2)
	default:
		return nil, fmt.Errorf("unknown environment %q", name)
	}
	if historySteps > 1 {
		env = types.NewHistoryEnv(env, historySteps)
	}
	// the recorder wraps outermost so it sees the stacked observations
	if monitorDir != "" {
		recorder, err := types.NewRecorder(env, monitorDir)
		if err != nil {
			return nil, err
		}
		env = recorder
	}
	return env, nil
}

func makeModel(env types.Environment, s *settings, modelSeed int64) (types.ValueFunction, error) {
	cfg := qnet.Config{
		InputSize:  env.ObservationSize(),
		Hidden:     s.hidden,
		NumActions: env.NumActions(),
		BatchSize:  s.batchSize,
		Seed:       modelSeed,
	}
	switch backend {
	case "gonum":
		return qnet.New(cfg)
	case "gorgonia":
		return qnet.NewGorgonia(cfg)
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func policyBuilder(name string, epsilon float64) (func(*rand.Rand) types.Policy, error) {
	switch name {
	case "egreedy":
		return func(rnd *rand.Rand) types.Policy {
			return policies.NewEpsilonGreedyPolicy(epsilon, rnd)
		}, nil
	case "greedy":
		return func(*rand.Rand) types.Policy {
			return policies.NewGreedyPolicy()
		}, nil
	case "softmax":
		return func(rnd *rand.Rand) types.Policy {
			return policies.NewSoftmaxPolicy(epsilon, rnd)
		}, nil
	case "random":
		return func(rnd *rand.Rand) types.Policy {
			return policies.NewRandomPolicy(rnd)
		}, nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}

// buildTrainer wires an environment, model and policy into a trainer. Each
// run derives its own seed so repeated runs stay independent.
func buildTrainer(s *settings, run int, nSteps bool, policy func(*rand.Rand) types.Policy,
	monitorDir string, onIteration func(types.IterationStats), logDetails bool) (*types.Trainer, error) {
	runSeed := s.seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	runSeed += int64(run) * 1000003

	env, err := makeEnvironment(s.environment, s.history, monitorDir, rand.New(rand.NewSource(uint64(runSeed))))
	if err != nil {
		return nil, err
	}
	model, err := makeModel(env, s, runSeed+1)
	if err != nil {
		return nil, err
	}

	if logDetails {
		log.Infof("Created environment %s, state: %d, actions: %d",
			s.environment, env.ObservationSize(), env.NumActions())
		if summarizer, ok := model.(interface{ Summary() string }); ok {
			log.Infof("\n%s", summarizer.Summary())
		}
		// test run, to check the wiring before training starts
		if monitorDir == "" {
			obs, err := env.Reset()
			if err != nil {
				return nil, err
			}
			values, err := model.Predict(obs)
			if err != nil {
				return nil, err
			}
			log.Infof("Test prediction: %v", values)
		}
	}

	episodeHorizon := s.horizon
	if monitorDir != "" {
		// recorded episodes play out until the environment ends them
		episodeHorizon = 0
	}

	collector := types.NewCollector(&types.CollectorConfig{
		Episodes:    s.episodes,
		Horizon:     episodeHorizon,
		Gamma:       s.gamma,
		NSteps:      nSteps,
		Policy:      policy(rand.New(rand.NewSource(uint64(runSeed + 2)))),
		Model:       model,
		Environment: env,
		Rand:        rand.New(rand.NewSource(uint64(runSeed + 3))),
	})
	return types.NewTrainer(&types.TrainerConfig{
		Iterations:  s.iterations,
		EpochLimit:  s.epochs,
		Collector:   collector,
		Model:       model,
		OnIteration: onIteration,
	}), nil
}
