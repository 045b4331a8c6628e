package types

import (
	"bufio"
	"encoding/json"
	"os"
	"path"
	"testing"
)

func readEpisodes(t *testing.T, dir string) []recordedEpisode {
	t.Helper()
	f, err := os.Open(path.Join(dir, "episodes.jsonl"))
	if err != nil {
		t.Fatalf("opening recorded episodes: %v", err)
	}
	defer f.Close()

	episodes := make([]recordedEpisode, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var episode recordedEpisode
		if err := json.Unmarshal(scanner.Bytes(), &episode); err != nil {
			t.Fatalf("decoding recorded episode: %v", err)
		}
		episodes = append(episodes, episode)
	}
	return episodes
}

func playEpisode(t *testing.T, env Environment, steps int) {
	t.Helper()
	if _, err := env.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < steps; i++ {
		if _, _, _, err := env.Step(0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestRecorderWritesFinishedEpisodes(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(&fakeEnv{rewards: []float64{1, 2}, terminal: true}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	playEpisode(t, recorder, 2)
	playEpisode(t, recorder, 2)

	episodes := readEpisodes(t, dir)
	if len(episodes) != 2 {
		t.Fatalf("expected 2 recorded episodes, got %d", len(episodes))
	}
	first := episodes[0]
	if first.Episode != 0 || first.Length != 2 || first.TotalReward != 3 {
		t.Errorf("unexpected first episode: %+v", first)
	}
	if !first.Steps[1].Done || first.Steps[0].Done {
		t.Errorf("expected the done flag only on the last step")
	}
	if first.Steps[1].Observation[0] != 2 {
		t.Errorf("expected the recorded observation, got %v", first.Steps[1].Observation)
	}
	if episodes[1].Episode != 1 {
		t.Errorf("expected episode numbering to continue, got %d", episodes[1].Episode)
	}
}

func TestRecorderFlushesUnfinishedOnClose(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(&fakeEnv{rewards: []float64{1, 2, 3}}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	playEpisode(t, recorder, 2)
	if err := recorder.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	episodes := readEpisodes(t, dir)
	if len(episodes) != 1 {
		t.Fatalf("expected the unfinished episode to be flushed, got %d", len(episodes))
	}
	if episodes[0].Length != 2 || episodes[0].Steps[1].Done {
		t.Errorf("unexpected recorded episode: %+v", episodes[0])
	}
}

func TestRecorderFlushesUnfinishedOnReset(t *testing.T) {
	dir := t.TempDir()
	recorder, err := NewRecorder(&fakeEnv{rewards: []float64{1, 2, 3}}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	playEpisode(t, recorder, 1)
	playEpisode(t, recorder, 2)
	if err := recorder.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	episodes := readEpisodes(t, dir)
	if len(episodes) != 2 {
		t.Fatalf("expected 2 recorded episodes, got %d", len(episodes))
	}
	if episodes[0].Length != 1 || episodes[1].Length != 2 {
		t.Errorf("unexpected episode lengths: %d and %d", episodes[0].Length, episodes[1].Length)
	}
	if episodes[1].TotalReward != 3 {
		t.Errorf("expected the totals to reset between episodes, got %v", episodes[1].TotalReward)
	}
}
