package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiKeyParam is the query parameter carrying the client credential. It is
// stripped before forwarding so the shared secret never reaches a backend.
const apiKeyParam = "api-key"

// hopByHopHeaders are connection-scoped headers that must not be relayed
// between the client and the upstream (RFC 9110 section 7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder performs the upstream HTTP exchange for a dispatched request.
// It is safe for concurrent use; one forwarder is shared by all requests.
type Forwarder struct {
	client  *http.Client
	timeout time.Duration
}

// NewForwarder creates a forwarder with the given per-request upstream
// timeout. The timeout is enforced through the request context so that
// timeouts and transport failures are distinguishable.
func NewForwarder(timeout time.Duration) *Forwarder {
	return &Forwarder{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
			// Redirects from a backend are relayed, not followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
	}
}

// Forward sends the inbound request to the backend at backendURL and returns
// the upstream response. The caller owns the response body. Failures are
// reported as *TransportError with the timeout flag set when the upstream
// deadline elapsed.
func (f *Forwarder) Forward(ctx context.Context, label, backendURL string, inbound *http.Request, body []byte) (*http.Response, error) {
	target, err := buildTargetURL(backendURL, inbound.URL)
	if err != nil {
		return nil, &TransportError{Backend: label, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	req, err := http.NewRequestWithContext(ctx, inbound.Method, target.String(), bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, &TransportError{Backend: label, Err: err}
	}

	copyHeaders(req.Header, inbound.Header)
	// The Host header must name the backend, not the router.
	req.Host = target.Host

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, &TransportError{
			Backend: label,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}

	// Tie the cancel to body close so the caller can stream the response.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// buildTargetURL merges the backend base URL with the inbound request URL.
// The inbound path is appended to the backend path, and inbound query
// parameters are carried over minus the credential; parameters embedded in
// the backend URL always win over inbound ones of the same name.
func buildTargetURL(backendURL string, inbound *url.URL) (*url.URL, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}

	if inbound.Path != "" && inbound.Path != "/" {
		target.Path = strings.TrimSuffix(target.Path, "/") + inbound.Path
	}

	query := target.Query()
	for name, values := range inbound.Query() {
		if name == apiKeyParam {
			continue
		}
		if _, reserved := query[name]; reserved {
			continue
		}
		query[name] = values
	}
	target.RawQuery = query.Encode()

	return target, nil
}

// copyHeaders copies all headers except the hop-by-hop set.
func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		if isHopByHop(name) {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func isHopByHop(name string) bool {
	for _, h := range hopByHopHeaders {
		if http.CanonicalHeaderKey(name) == h {
			return true
		}
	}
	return false
}

// isTimeout reports whether an upstream error was a deadline expiry rather
// than a connection-level failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// cancelReadCloser releases the request's timeout context when the response
// body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
