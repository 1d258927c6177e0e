// Package httpc provides the HTTP client shared by kiosk components.
// Every outbound request goes through a transport with explicit
// timeouts so a stalled backend cannot hang a capture flow.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Timeouts applied to all outbound requests.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client is the shared client. Prefer it over http.DefaultClient,
// which has no timeout at all.
var Client = NewClient(DefaultTimeout)

// NewClient returns a client with the shared transport settings and
// the given overall request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
