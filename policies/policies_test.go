package policies

import (
	"testing"

	"golang.org/x/exp/rand"
)

func TestArgMax(t *testing.T) {
	if got := ArgMax([]float64{1, 3, 2}); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
	// ties break towards the first occurrence
	if got := ArgMax([]float64{1, 3, 3}); got != 1 {
		t.Errorf("expected the first of the tied values, got %d", got)
	}
	if got := ArgMax([]float64{2, 1}); got != 0 {
		t.Errorf("expected index 0, got %d", got)
	}
	if got := ArgMax([]float64{-3, -1, -2}); got != 1 {
		t.Errorf("expected index 1 on negative values, got %d", got)
	}
}

func TestEpsilonGreedyExploits(t *testing.T) {
	policy := NewGreedyPolicy()
	for i := 0; i < 100; i++ {
		action, ok := policy.NextAction(i, []float64{0.1, 0.9, 0.5})
		if !ok || action != 1 {
			t.Fatalf("expected the greedy action 1, got %d", action)
		}
	}
}

func TestEpsilonGreedyExplores(t *testing.T) {
	policy := NewEpsilonGreedyPolicy(1, rand.New(rand.NewSource(1)))
	counts := make([]int, 3)
	for i := 0; i < 300; i++ {
		action, ok := policy.NextAction(i, []float64{0.1, 0.9, 0.5})
		if !ok {
			t.Fatalf("expected an action")
		}
		if action < 0 || action > 2 {
			t.Fatalf("action %d out of range", action)
		}
		counts[action]++
	}
	for a, count := range counts {
		if count == 0 {
			t.Errorf("expected action %d to be explored", a)
		}
	}
}

func TestEpsilonGreedyEmpty(t *testing.T) {
	policy := NewGreedyPolicy()
	if _, ok := policy.NextAction(0, nil); ok {
		t.Errorf("expected no action on empty values")
	}
}

func TestRandomPolicy(t *testing.T) {
	policy := NewRandomPolicy(rand.New(rand.NewSource(1)))
	counts := make([]int, 2)
	for i := 0; i < 200; i++ {
		action, ok := policy.NextAction(i, []float64{5, -5})
		if !ok || action < 0 || action > 1 {
			t.Fatalf("unexpected action %d", action)
		}
		counts[action]++
	}
	// the values must not bias the choice
	if counts[0] == 0 || counts[1] == 0 {
		t.Errorf("expected both actions to be picked, got %v", counts)
	}

	if _, ok := policy.NextAction(0, nil); ok {
		t.Errorf("expected no action on empty values")
	}
}

func TestSoftmaxPolicy(t *testing.T) {
	policy := NewSoftmaxPolicy(1, rand.NewSource(1))
	counts := make([]int, 2)
	for i := 0; i < 200; i++ {
		action, ok := policy.NextAction(i, []float64{1, 2})
		if !ok || action < 0 || action > 1 {
			t.Fatalf("unexpected action %d", action)
		}
		counts[action]++
	}
	if counts[1] <= counts[0] {
		t.Errorf("expected the higher value to be sampled more often, got %v", counts)
	}

	if _, ok := policy.NextAction(0, nil); ok {
		t.Errorf("expected no action on empty values")
	}
}

func TestSoftmaxPolicyLargeValues(t *testing.T) {
	// exponentials of shifted values must not overflow
	policy := NewSoftmaxPolicy(1, rand.NewSource(1))
	for i := 0; i < 50; i++ {
		action, ok := policy.NextAction(i, []float64{1000, 1000.5})
		if !ok || action < 0 || action > 1 {
			t.Fatalf("unexpected action %d", action)
		}
	}
}
