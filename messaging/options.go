package messaging

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultReceiveTimeout bounds each receive, and therefore how long Stop can take.
	DefaultReceiveTimeout = time.Second
	// DefaultHandshakeBackoff is the pause between two handshake attempts.
	DefaultHandshakeBackoff = 100 * time.Millisecond
	// DefaultReconnectInterval is the pause between two dials after the service went away.
	DefaultReconnectInterval = 100 * time.Millisecond
)

// Option configures a Connection.
type Option func(*Connection)

// WithDialer replaces the ZeroMQ dialer, mostly for tests.
func WithDialer(d Dialer) Option {
	return func(c *Connection) { c.dialer = d }
}

// WithReceiveTimeout sets how long a single receive may block.
func WithReceiveTimeout(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.receiveTimeout = d
		}
	}
}

// WithHandshakeBackoff sets the pause between handshake attempts.
func WithHandshakeBackoff(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.handshakeBackoff = d
		}
	}
}

// WithReconnectInterval sets the pause between dials after the service went away.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.reconnectInterval = d
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Connection) { c.log = l.With().Str("component", "messaging").Logger() }
}

// WithMetrics attaches counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Connection) { c.metrics = m }
}
