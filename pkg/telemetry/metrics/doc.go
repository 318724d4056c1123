// Package metrics exposes Prometheus metrics for the router: per-outcome
// request counts, dispatch duration histograms, upstream transport failure
// counts, and a healthy-backend gauge evaluated at scrape time. All metrics
// live in a private registry owned by the Collector.
package metrics
