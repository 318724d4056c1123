package audit

import "time"

// Record is one audit trail entry describing a completed dispatch.
// Records capture outcomes for operators; they are never read back on the
// request path and never influence routing.
type Record struct {
	// ID is a UUID assigned by the recorder.
	ID string

	// Time is when the dispatch finished.
	Time time.Time

	// RequestID correlates the record with request logs.
	RequestID string

	// RPCMethod is the extracted JSON-RPC method, or "unknown".
	RPCMethod string

	// Path is the inbound request path.
	Path string

	// RemoteAddr is the client address.
	RemoteAddr string

	// Backend is the chosen backend label, or "none" when the request was
	// rejected before selection.
	Backend string

	// Status is the terminal dispatch outcome ("success", "unauthorized",
	// "bad_gateway", "timeout", "unavailable").
	Status string

	// StatusCode is the HTTP status returned to the caller.
	StatusCode int

	// Duration is the total dispatch duration.
	Duration time.Duration
}
