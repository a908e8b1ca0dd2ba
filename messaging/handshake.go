package messaging

import (
	"context"
	"time"
)

// Handshake resets the ready flag and keeps sending the Sentinel until the service
// echoes it back.
//
// There is no built-in deadline: a service that never comes up makes Handshake wait for
// as long as ctx allows, and then it returns ctx.Err().
func (c *Connection) Handshake(ctx context.Context) error {
	c.ready.Store(false)

	ticker := time.NewTicker(c.handshakeBackoff)
	defer ticker.Stop()

	for {
		if err := c.send(Sentinel); err != nil {
			c.log.Debug().Err(err).Msg("handshake attempt failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if c.ready.Load() {
			return nil
		}
	}
}
