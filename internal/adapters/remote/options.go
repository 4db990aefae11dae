package remote

import (
	"net/http"
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d >= 0 {
			cl.timeout = d
		}
	}
}

// WithOptimisticConcurrency makes writes conditional on the version that was
// read, when the endpoint reports one.
func WithOptimisticConcurrency(enabled bool) Option {
	return func(cl *Client) { cl.optimistic = enabled }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// WithClock sets the time source used for cache busting.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		if now != nil {
			cl.now = now
		}
	}
}
