// Callisto is a routing reverse proxy for JSON-RPC backends.
//
// It sits in front of a weighted pool of JSON-RPC endpoints, providing:
//   - Shared-secret authentication via the api-key query parameter
//   - Weighted-random backend selection
//   - Per-method routing overrides to dedicated endpoints
//   - Background backend health monitoring
//   - Request audit trails and Prometheus metrics
//
// Usage:
//
//	# Start server with default configuration
//	callisto run
//
//	# Start with custom configuration file
//	callisto run --config /path/to/config.yaml
//
//	# Show version information
//	callisto version
//
//	# Validate a configuration file
//	callisto validate
//
//	# Query the audit trail
//	callisto audit list --limit 50 --format json
package main

func main() {
	Execute()
}
