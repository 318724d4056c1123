package routing

import (
	"net/url"
)

// Backend is one routing target: a URL plus the weight it carries in the
// weighted pool. Override targets resolved from the method-route map reuse
// this type with a weight of 0 since they never participate in weighted
// selection.
type Backend struct {
	// Label identifies the backend in logs, metrics, and audit records.
	Label string

	// URL is the backend endpoint, possibly carrying its own query string.
	URL string

	// Weight is the backend's share of weighted-random traffic.
	Weight int
}

// Table is the immutable routing table: the ordered weighted backend pool
// with its precomputed cumulative weights, and the method-route override map
// resolved to concrete backends.
//
// A Table is built once (at startup or on a configuration reload) and is
// never mutated afterwards, so it is shared read-only across all concurrent
// requests without locking. Replacing a table means building a new one and
// swapping the active reference atomically.
type Table struct {
	backends []Backend

	// cum[i] is the sum of weights of backends[0..i]. Selection draws a
	// value in [0, cum[len-1]) and binary-searches for the first bucket
	// containing it. Computed once here so selection allocates nothing.
	cum []int64

	// total is cum[len(cum)-1], the sum of all pool weights.
	total int64

	// routes maps an exact method name to its resolved override target.
	routes map[string]Backend
}

// NewTable builds an immutable routing table from the weighted backend list
// and the optional method-route override map (method name to target URL).
//
// It returns ErrNoBackends for an empty pool and an InvalidWeightError for
// any weight below 1. Both are fatal: the router refuses to start rather
// than serve with a table it cannot select from.
//
// An override target does not have to be a pool member. When it is (by exact
// URL match), the override resolves to that backend's label; otherwise the
// target keeps its URL host as its identifier.
func NewTable(backends []Backend, methodRoutes map[string]string) (*Table, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	t := &Table{
		backends: make([]Backend, len(backends)),
		cum:      make([]int64, len(backends)),
		routes:   make(map[string]Backend, len(methodRoutes)),
	}
	copy(t.backends, backends)

	var sum int64
	for i, b := range t.backends {
		if b.Weight < 1 {
			return nil, &InvalidWeightError{Label: b.Label, Weight: b.Weight}
		}
		sum += int64(b.Weight)
		t.cum[i] = sum
	}
	t.total = sum

	byURL := make(map[string]Backend, len(t.backends))
	for _, b := range t.backends {
		byURL[b.URL] = b
	}

	for method, target := range methodRoutes {
		if pool, ok := byURL[target]; ok {
			t.routes[method] = Backend{Label: pool.Label, URL: pool.URL}
			continue
		}
		t.routes[method] = Backend{Label: overrideLabel(target), URL: target}
	}

	return t, nil
}

// Backends returns the weighted backend pool in configuration order.
// The returned slice must not be modified.
func (t *Table) Backends() []Backend {
	return t.backends
}

// Len returns the number of backends in the weighted pool.
func (t *Table) Len() int {
	return len(t.backends)
}

// TotalWeight returns the sum of all pool weights.
func (t *Table) TotalWeight() int64 {
	return t.total
}

// Route looks up a method-route override for the given method name.
// Matching is exact and case-sensitive: no trimming, no normalization.
// The second return value reports whether an override exists.
func (t *Table) Route(method string) (Backend, bool) {
	b, ok := t.routes[method]
	return b, ok
}

// RouteCount returns the number of configured method-route overrides.
func (t *Table) RouteCount() int {
	return len(t.routes)
}

// overrideLabel derives a log identifier for an override target that is not
// a member of the weighted pool. The URL host is stable and never leaks a
// key embedded in the target's query string.
func overrideLabel(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "override"
	}
	return u.Host
}
