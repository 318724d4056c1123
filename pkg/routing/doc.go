// Package routing implements the request-dispatch decision core: the
// immutable routing table and weighted-random backend selection.
//
// A Table is built once from validated configuration. It holds the ordered
// weighted backend pool with cumulative weights precomputed at construction,
// plus the method-route override map resolved to concrete targets. Tables
// are never mutated; configuration reload builds a new Table and swaps the
// active reference atomically.
//
// A Selector draws a uniform value in [0, total weight) and binary-searches
// the cumulative weights, so backend i is chosen with probability
// weight_i / total. Randomness is abstracted behind the Source interface so
// tests can pin draws to exact bucket boundaries.
package routing
