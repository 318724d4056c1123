package routing

import (
	"errors"
	"testing"
)

// scriptedSource returns a fixed sequence of draws, then repeats the last.
type scriptedSource struct {
	draws []float64
	i     int
}

func (s *scriptedSource) Float64() float64 {
	if s.i < len(s.draws)-1 {
		v := s.draws[s.i]
		s.i++
		return v
	}
	return s.draws[len(s.draws)-1]
}

// panicSource fails the test if a draw is ever requested.
type panicSource struct {
	t *testing.T
}

func (s panicSource) Float64() float64 {
	s.t.Fatal("random source consulted when it should not be")
	return 0
}

func mustTable(t *testing.T, backends []Backend) *Table {
	t.Helper()
	table, err := NewTable(backends, nil)
	if err != nil {
		t.Fatalf("NewTable() unexpected error: %v", err)
	}
	return table
}

func TestSelector_Pick_Boundaries(t *testing.T) {
	// Weights 2, 3, 1: cumulative weights 2, 5, 6.
	table := mustTable(t, poolBackends())

	tests := []struct {
		name string
		draw float64
		want string
	}{
		{name: "zero lands in first bucket", draw: 0, want: "alpha"},
		{name: "just below first boundary", draw: 1.9 / 6.0, want: "alpha"},
		{name: "exactly on first boundary", draw: 2.0 / 6.0, want: "beta"},
		{name: "inside second bucket", draw: 4.0 / 6.0, want: "beta"},
		{name: "exactly on second boundary", draw: 5.0 / 6.0, want: "gamma"},
		{name: "just below total", draw: 0.9999999, want: "gamma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewSelector(table, &scriptedSource{draws: []float64{tt.draw}})
			got := selector.Pick()
			if got.Label != tt.want {
				t.Errorf("Pick() with draw %v = %q, want %q", tt.draw, got.Label, tt.want)
			}
		})
	}
}

func TestSelector_Pick_Proportions(t *testing.T) {
	// An evenly spaced sweep of draws recovers exact weight proportions
	// without depending on a random seed.
	table := mustTable(t, poolBackends())

	const n = 6000
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		draw := (float64(i) + 0.5) / float64(n)
		selector := NewSelector(table, &scriptedSource{draws: []float64{draw}})
		counts[selector.Pick().Label]++
	}

	want := map[string]int{
		"alpha": n * 2 / 6,
		"beta":  n * 3 / 6,
		"gamma": n * 1 / 6,
	}
	for label, wantCount := range want {
		if counts[label] != wantCount {
			t.Errorf("backend %q selected %d times, want %d", label, counts[label], wantCount)
		}
	}
}

func TestSelector_Pick_DefaultSourceDistribution(t *testing.T) {
	// With the real random source, observed proportions converge to
	// weight/total within a loose statistical tolerance.
	table := mustTable(t, poolBackends())
	selector := NewSelector(table, nil)

	const n = 60000
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		counts[selector.Pick().Label]++
	}

	total := float64(table.TotalWeight())
	for _, b := range table.Backends() {
		want := float64(b.Weight) / total
		got := float64(counts[b.Label]) / float64(n)
		if diff := got - want; diff < -0.02 || diff > 0.02 {
			t.Errorf("backend %q observed proportion %.4f, want %.4f ± 0.02", b.Label, got, want)
		}
	}
}

func TestSelector_Pick_SingleBackendSkipsDraw(t *testing.T) {
	tests := []struct {
		name   string
		weight int
	}{
		{name: "weight one", weight: 1},
		{name: "large weight", weight: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := mustTable(t, []Backend{
				{Label: "only", URL: "https://only.example.com", Weight: tt.weight},
			})
			selector := NewSelector(table, panicSource{t: t})

			got := selector.Pick()
			if got.Label != "only" {
				t.Errorf("Pick() = %q, want %q", got.Label, "only")
			}
		})
	}
}

func TestSelector_PickHealthy(t *testing.T) {
	table := mustTable(t, poolBackends())

	healthySet := func(labels ...string) func(string) bool {
		set := make(map[string]bool, len(labels))
		for _, l := range labels {
			set[l] = true
		}
		return func(label string) bool { return set[label] }
	}

	t.Run("nil predicate selects from full pool", func(t *testing.T) {
		selector := NewSelector(table, &scriptedSource{draws: []float64{0}})
		got, err := selector.PickHealthy(nil)
		if err != nil {
			t.Fatalf("PickHealthy() unexpected error: %v", err)
		}
		if got.Label != "alpha" {
			t.Errorf("PickHealthy(nil) = %q, want %q", got.Label, "alpha")
		}
	})

	t.Run("all healthy uses prefix sums", func(t *testing.T) {
		selector := NewSelector(table, &scriptedSource{draws: []float64{5.0 / 6.0}})
		got, err := selector.PickHealthy(healthySet("alpha", "beta", "gamma"))
		if err != nil {
			t.Fatalf("PickHealthy() unexpected error: %v", err)
		}
		if got.Label != "gamma" {
			t.Errorf("PickHealthy() = %q, want %q", got.Label, "gamma")
		}
	})

	t.Run("filtered pool renormalizes weights", func(t *testing.T) {
		// Surviving pool: beta (3), gamma (1), total 4. A draw of 3/4
		// lands exactly on the beta/gamma boundary.
		predicate := healthySet("beta", "gamma")

		selector := NewSelector(table, &scriptedSource{draws: []float64{0.5}})
		got, err := selector.PickHealthy(predicate)
		if err != nil {
			t.Fatalf("PickHealthy() unexpected error: %v", err)
		}
		if got.Label != "beta" {
			t.Errorf("PickHealthy() draw 0.5 = %q, want %q", got.Label, "beta")
		}

		selector = NewSelector(table, &scriptedSource{draws: []float64{3.0 / 4.0}})
		got, err = selector.PickHealthy(predicate)
		if err != nil {
			t.Fatalf("PickHealthy() unexpected error: %v", err)
		}
		if got.Label != "gamma" {
			t.Errorf("PickHealthy() draw 0.75 = %q, want %q", got.Label, "gamma")
		}
	})

	t.Run("single eligible backend skips draw", func(t *testing.T) {
		selector := NewSelector(table, panicSource{t: t})
		got, err := selector.PickHealthy(healthySet("beta"))
		if err != nil {
			t.Fatalf("PickHealthy() unexpected error: %v", err)
		}
		if got.Label != "beta" {
			t.Errorf("PickHealthy() = %q, want %q", got.Label, "beta")
		}
	})

	t.Run("no healthy backends", func(t *testing.T) {
		selector := NewSelector(table, panicSource{t: t})
		_, err := selector.PickHealthy(healthySet())
		if !errors.Is(err, ErrNoHealthyBackends) {
			t.Fatalf("PickHealthy() error = %v, want %v", err, ErrNoHealthyBackends)
		}
	})
}
