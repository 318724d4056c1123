package proxy

import (
	"fmt"
	"net/http"
)

// TransportError reports a failed upstream exchange. It distinguishes
// timeouts from other transport failures because the two map to different
// gateway status codes.
type TransportError struct {
	// Backend is the label of the backend the exchange targeted.
	Backend string

	// Timeout is true when the upstream deadline elapsed.
	Timeout bool

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream %s timed out: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("upstream %s unreachable: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// GatewayStatus returns the HTTP status the proxy reports for this failure:
// 504 for timeouts, 502 for everything else.
func (e *TransportError) GatewayStatus() int {
	if e.Timeout {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
