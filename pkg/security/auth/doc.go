// Package auth validates inbound requests against the configured set of
// shared-secret API keys.
//
// The router's key is carried in the api-key query parameter and gates
// access to the proxy; it is unrelated to any credential a backend URL may
// embed for its own provider. Authentication is a pure membership check with
// a single rejection path: missing, empty, and unknown keys are
// indistinguishable to the caller.
package auth
