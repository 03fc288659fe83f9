// Package network builds the HTTP clients used for manifest and image downloads.
package network

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/open-edge-platform/boxctl/internal/config/version"
)

var (
	sharedClient *http.Client
	sharedOnce   sync.Once
)

// NewSecureHTTPClient returns a process-wide client with TLS 1.2+ and no overall timeout.
// Image downloads use it and rely on the request context for cancellation.
func NewSecureHTTPClient() *http.Client {
	sharedOnce.Do(func() {
		sharedClient = &http.Client{Transport: newTransport()}
	})
	return sharedClient
}

// NewSecureHTTPClientWithTimeout returns a fresh client whose requests are bounded by timeout.
func NewSecureHTTPClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newTransport(),
		Timeout:   timeout,
	}
}

func newTransport() http.RoundTripper {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &userAgentTransport{base: base, agent: version.UserAgent()}
}

// userAgentTransport stamps requests that carry no User-Agent of their own.
type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(r)
}
