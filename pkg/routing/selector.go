package routing

import (
	"math/rand"
	"sort"
)

// Source provides uniform random draws in [0, 1). It exists so tests can
// inject a deterministic source and force draws to land exactly on a
// cumulative-weight boundary.
//
// Implementations must be safe for concurrent use: selection happens on the
// hot path of every request and must not serialize request throughput.
type Source interface {
	Float64() float64
}

// mathRandSource draws from the math/rand top-level generator, which is
// safe for concurrent use without locking on the caller's side.
type mathRandSource struct{}

func (mathRandSource) Float64() float64 { return rand.Float64() }

// Selector picks backends from a table's weighted pool such that the
// long-run probability of backend i being chosen is weight_i divided by the
// total pool weight.
//
// Selection over the full pool is a single draw plus a binary search over
// the table's precomputed cumulative weights and performs no allocation.
type Selector struct {
	table *Table
	src   Source
}

// NewSelector creates a selector over the given table. A nil source selects
// the default concurrency-safe math/rand source.
func NewSelector(table *Table, src Source) *Selector {
	if src == nil {
		src = mathRandSource{}
	}
	return &Selector{
		table: table,
		src:   src,
	}
}

// Pick selects a backend from the full weighted pool.
//
// A single-backend pool short-circuits without consuming randomness.
func (s *Selector) Pick() Backend {
	backends := s.table.backends
	if len(backends) == 1 {
		return backends[0]
	}

	r := s.draw(s.table.total)
	// Smallest i such that r < cum[i].
	i := sort.Search(len(s.table.cum), func(i int) bool {
		return r < s.table.cum[i]
	})
	return backends[i]
}

// PickHealthy selects a backend from the subset of the pool for which
// healthy returns true, with probabilities proportional to the surviving
// weights. A nil predicate is equivalent to Pick.
//
// Returns ErrNoHealthyBackends when the predicate rejects every backend.
func (s *Selector) PickHealthy(healthy func(label string) bool) (Backend, error) {
	if healthy == nil {
		return s.Pick(), nil
	}

	backends := s.table.backends

	var total int64
	eligible := 0
	last := -1
	for i, b := range backends {
		if healthy(b.Label) {
			total += int64(b.Weight)
			eligible++
			last = i
		}
	}

	switch eligible {
	case 0:
		return Backend{}, ErrNoHealthyBackends
	case len(backends):
		// Nothing filtered; use the precomputed prefix sums.
		return s.Pick(), nil
	case 1:
		return backends[last], nil
	}

	r := s.draw(total)
	for _, b := range backends {
		if !healthy(b.Label) {
			continue
		}
		if r < int64(b.Weight) {
			return b, nil
		}
		r -= int64(b.Weight)
	}

	// Unreachable with a well-behaved source; keep the last eligible
	// backend as a safety net against float rounding.
	return backends[last], nil
}

// draw returns a uniformly distributed value in [0, total).
func (s *Selector) draw(total int64) int64 {
	r := int64(s.src.Float64() * float64(total))
	if r >= total {
		r = total - 1
	}
	return r
}
