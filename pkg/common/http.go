package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

//go:embed VERSION
var version string

// UserAgent is sent with every request made by clients from HTTPClient.
func UserAgent() string {
	return "BreakerView/" + strings.TrimSpace(version)
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original request's headers
	// which might be shared or reused
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

type pacedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

// RoundTrip waits for the limiter before handing the request on. A canceled
// request context aborts the wait.
func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// HTTPClient returns a default http client with a default user-agent set
func HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			transport: http.DefaultTransport,
			userAgent: UserAgent(),
		},
		Timeout: timeout,
	}
}

// PacedHTTPClient is like HTTPClient but spaces requests at least interval
// apart. An interval of 0 disables pacing.
func PacedHTTPClient(timeout, interval time.Duration) *http.Client {
	c := HTTPClient(timeout)
	if interval <= 0 {
		return c
	}
	c.Transport = &pacedTransport{
		transport: c.Transport,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
	return c
}
