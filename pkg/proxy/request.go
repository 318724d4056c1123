package proxy

import "encoding/json"

// rpcProbe captures only the method field of a JSON-RPC request body. The
// rest of the payload is opaque to the router and forwarded untouched.
type rpcProbe struct {
	Method json.RawMessage `json:"method"`
}

// ExtractMethod pulls the top-level "method" string out of a JSON-RPC
// request body. It returns false when the body is not a JSON object, the
// field is absent, or the field is not a string; callers treat any of those
// as "no method" and fall back to weighted selection.
func ExtractMethod(body []byte) (string, bool) {
	var probe rpcProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", false
	}
	if len(probe.Method) == 0 {
		return "", false
	}

	var method string
	if err := json.Unmarshal(probe.Method, &method); err != nil {
		return "", false
	}
	if method == "" {
		return "", false
	}
	return method, true
}
