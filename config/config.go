// Package config loads training parameters from yaml files.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"nstep-dqn/util"
)

// TrainingConfig holds the parameters of a training run. Values read from a
// yaml file override the command line defaults.
type TrainingConfig struct {
	// Environment names the registered environment to train on
	Environment string `mapstructure:"environment" yaml:"environment,omitempty"`
	// HyperParams is a key-val list of named parameter values
	HyperParams []HyperParameter `mapstructure:"hyperparams" yaml:"hyperparams,omitempty"`
	// TrainingDeadline optionally bounds the run, e.g. {duration: 5m}
	TrainingDeadline map[string]string `mapstructure:"trainingdeadline" yaml:"trainingdeadline,omitempty"`
}

type HyperParameter struct {
	Key string  `mapstructure:"key" yaml:"key"`
	Val float64 `mapstructure:"val" yaml:"val"`
}

// outerConfig wraps the definition with a kind discriminator so other config
// kinds can share the same files later
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

func (cfg *TrainingConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// WithTrainingDeadline returns a context extended by the training deadline,
// if one is specified
func (cfg *TrainingConfig) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("bad training deadline %q: %w", val, err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml reads a training config. The file carries a kind marker and the
// definition underneath it:
//
//	kind: training
//	def:
//	  environment: CartPole-v0
//	  hyperparams:
//	    - key: tau
//	      val: 0.2
func FromYaml(path string) (*TrainingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}
	if outer.Kind != "training" {
		return nil, fmt.Errorf("unexpected config kind %q", outer.Kind)
	}

	def, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	cfg := &TrainingConfig{}
	if err := yaml.Unmarshal(def, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config out so a run records the parameters it used
func (cfg *TrainingConfig) Save(path string) error {
	wrapped := struct {
		Kind string          `yaml:"kind"`
		Def  *TrainingConfig `yaml:"def"`
	}{Kind: "training", Def: cfg}
	out, err := yaml.Marshal(wrapped)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return util.WriteToFile(path, string(out))
}
