package types

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"nstep-dqn/util"
)

// RecordedStep is one transition of a recorded episode
type RecordedStep struct {
	Observation []float64 `json:"obs"`
	Action      int       `json:"action"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
}

type recordedEpisode struct {
	Episode     int            `json:"episode"`
	Steps       []RecordedStep `json:"steps"`
	TotalReward float64        `json:"total_reward"`
	Length      int            `json:"length"`
}

// Recorder wraps an environment and appends every finished episode as one
// JSON line to episodes.jsonl in the target directory. Episodes cut off
// before the done flag are flushed on the next Reset or on Close.
type Recorder struct {
	inner   Environment
	file    string
	episode int
	pending []RecordedStep
	total   float64
}

var _ Environment = &Recorder{}

func NewRecorder(inner Environment, dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating monitor directory: %w", err)
	}
	return &Recorder{
		inner:   inner,
		file:    path.Join(dir, "episodes.jsonl"),
		pending: make([]RecordedStep, 0),
	}, nil
}

func (r *Recorder) Reset() ([]float64, error) {
	if len(r.pending) > 0 {
		if err := r.flush(); err != nil {
			return nil, err
		}
	}
	return r.inner.Reset()
}

func (r *Recorder) Step(action int) ([]float64, float64, bool, error) {
	obs, reward, done, err := r.inner.Step(action)
	if err != nil {
		return obs, reward, done, err
	}
	r.pending = append(r.pending, RecordedStep{
		Observation: obs,
		Action:      action,
		Reward:      reward,
		Done:        done,
	})
	r.total += reward
	if done {
		if err := r.flush(); err != nil {
			return obs, reward, done, err
		}
	}
	return obs, reward, done, nil
}

func (r *Recorder) ObservationSize() int {
	return r.inner.ObservationSize()
}

func (r *Recorder) NumActions() int {
	return r.inner.NumActions()
}

// Close flushes a trailing unfinished episode
func (r *Recorder) Close() error {
	if len(r.pending) == 0 {
		return nil
	}
	return r.flush()
}

func (r *Recorder) flush() error {
	record := recordedEpisode{
		Episode:     r.episode,
		Steps:       r.pending,
		TotalReward: r.total,
		Length:      len(r.pending),
	}
	bs, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding episode %d: %w", r.episode, err)
	}
	if err := util.AppendToFile(r.file, string(bs)); err != nil {
		return fmt.Errorf("recording episode %d: %w", r.episode, err)
	}
	r.episode++
	r.pending = make([]RecordedStep, 0)
	r.total = 0
	return nil
}
