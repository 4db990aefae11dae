package api

import (
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

const defaultWriteRatePerMinute = 60

type serverConfig struct {
	writeRatePerMinute int
	now                func() time.Time
	logger             logger.Logger
}

// Option configures a Server.
type Option func(*serverConfig)

// WithWriteRate limits write requests per client IP per minute. Zero or
// less disables the limit.
func WithWriteRate(perMinute int) Option {
	return func(c *serverConfig) { c.writeRatePerMinute = perMinute }
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the clock used by the write limiter.
func WithClock(now func() time.Time) Option {
	return func(c *serverConfig) { c.now = now }
}
