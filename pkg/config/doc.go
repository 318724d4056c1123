// Package config provides configuration loading, defaulting, and validation
// for Callisto.
//
// Configuration is read from a YAML file, filled in with sane defaults, and
// validated as a whole so that every problem is reported at once. Environment
// variables in the CALLISTO_SECTION_FIELD form override file values.
//
// Typical usage:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//		// a ValidationError here is fatal: the router never serves
//		// with an invalid routing table or key set
//	}
//
// The loaded Config is treated as immutable by the rest of the system.
// Hot reload (see Watcher) never mutates a live Config; it loads a fresh one
// and hands it to the reload callback, which swaps derived state atomically.
package config
