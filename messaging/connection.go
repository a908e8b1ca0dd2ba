package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel is the reserved handshake payload. It is never a real message.
const Sentinel = "!"

const receiveErrorPause = 10 * time.Millisecond

// Connection is a full-duplex link to the service's message bus. Create one with
// NewConnection and pass it to whatever needs to talk to the service.
type Connection struct {
	endpoints         Endpoints
	dialer            Dialer
	receiveTimeout    time.Duration
	handshakeBackoff  time.Duration
	reconnectInterval time.Duration
	log               zerolog.Logger
	metrics           *Metrics

	mailbox  *Mailbox
	ready    atomic.Bool
	stopping atomic.Bool

	lock    sync.Mutex
	sockets *Sockets
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConnection returns a Connection to endpoints. Nothing is opened until Start.
func NewConnection(endpoints Endpoints, opts ...Option) *Connection {
	c := &Connection{
		endpoints:         endpoints,
		receiveTimeout:    DefaultReceiveTimeout,
		handshakeBackoff:  DefaultHandshakeBackoff,
		reconnectInterval: DefaultReconnectInterval,
		log:               zerolog.Nop(),
		mailbox:           NewMailbox(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = ZMQDialer{}
	}
	return c
}

// Endpoints returns the endpoints used by the next Start.
func (c *Connection) Endpoints() Endpoints {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.endpoints
}

// SetEndpoints changes the endpoints of a stopped Connection, for instance after the
// service was restarted on different ports.
func (c *Connection) SetEndpoints(endpoints Endpoints) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.done != nil {
		return ErrAlreadyStarted
	}
	c.endpoints = endpoints
	return nil
}

// Start opens both sockets and spawns the receiver. The mailbox is kept as it was.
//
// A failure to open either socket is returned as a *ConnectionError right away.
func (c *Connection) Start(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.stopping.Load() {
		return &ConnectionError{Op: "start", Err: ErrShutdownInProgress}
	}
	if c.done != nil {
		return &ConnectionError{Op: "start", Err: ErrAlreadyStarted}
	}

	sockets, err := c.dialer.Dial(ctx, c.endpoints)
	if err != nil {
		return &ConnectionError{Op: "dial", Endpoint: c.endpoints.String(), Err: err}
	}

	c.ready.Store(false)
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.sockets, c.cancel, c.done = sockets, cancel, done

	go c.receive(loopCtx, sockets, done)

	c.log.Info().Str("endpoints", c.endpoints.String()).Msg("connection started")
	return nil
}

// Stop signals the receiver, waits for it to close the sockets and exit, and then makes
// the Connection ready for another Start. Stopping a Connection that is not started does
// nothing.
func (c *Connection) Stop() {
	c.lock.Lock()
	if c.done == nil {
		c.lock.Unlock()
		return
	}
	c.stopping.Store(true)
	cancel, done := c.cancel, c.done
	c.lock.Unlock()

	cancel()
	<-done

	c.lock.Lock()
	c.cancel, c.done = nil, nil
	c.stopping.Store(false)
	c.lock.Unlock()

	c.log.Info().Msg("connection stopped")
}

// Running reports whether the receiver goroutine is alive.
func (c *Connection) Running() bool {
	c.lock.Lock()
	done := c.done
	c.lock.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Ready reports whether the service echoed the Sentinel since the last handshake began.
func (c *Connection) Ready() bool {
	return c.ready.Load()
}

// Send writes payload to the outbound socket. If the Connection is not started, or is
// reconnecting to the service, the payload is dropped without an error, so callers must
// Start first and Handshake after the service restarted.
func (c *Connection) Send(payload string) error {
	if payload == Sentinel {
		return ErrReservedPayload
	}
	return c.send(payload)
}

func (c *Connection) send(payload string) error {
	c.lock.Lock()
	sockets := c.sockets
	c.lock.Unlock()

	if sockets == nil {
		if payload != Sentinel {
			c.metrics.sendDropped()
		}
		c.log.Debug().Str("payload", payload).Msg("not connected, dropping send")
		return nil
	}
	return sockets.Outbound.Send(payload)
}

// Mailbox returns a copy of the unacknowledged messages in receive order.
func (c *Connection) Mailbox() []string {
	return c.mailbox.Snapshot()
}

// Contains reports whether the mailbox holds value.
func (c *Connection) Contains(value string) bool {
	return c.mailbox.Contains(value)
}

// Ack removes the first occurrence of value from the mailbox, if there is one.
func (c *Connection) Ack(value string) {
	if c.mailbox.Ack(value) {
		c.metrics.messageAcknowledged()
	}
}

// receive owns the sockets until shutdown. When the service goes away underneath it,
// the sockets are replaced by fresh ones and the ready flag is cleared, so the next
// Handshake confirms the new link.
func (c *Connection) receive(ctx context.Context, sockets *Sockets, done chan struct{}) {
	defer close(done)

	for sockets != nil {
		lost := c.drain(ctx, sockets)
		c.teardown(sockets)
		if !lost {
			return
		}
		c.ready.Store(false)
		c.log.Warn().Str("endpoints", c.endpoints.String()).Msg("service went away, reconnecting")
		sockets = c.redial(ctx)
	}
}

// drain reads from sockets until shutdown or until the inbound side is lost, in which
// case it returns true.
func (c *Connection) drain(ctx context.Context, sockets *Sockets) bool {
	for {
		if c.stopping.Load() || ctx.Err() != nil {
			return false
		}

		recvCtx, cancel := context.WithTimeout(ctx, c.receiveTimeout)
		payload, err := sockets.Inbound.Recv(recvCtx)
		cancel()

		if err != nil {
			switch {
			case ctx.Err() != nil || c.stopping.Load():
				return false
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, ErrClosed):
				return true
			}
			c.log.Warn().Err(err).Msg("receive failed")
			select {
			case <-ctx.Done():
				return false
			case <-time.After(receiveErrorPause):
			}
			continue
		}

		c.accept(payload)
	}
}

// redial keeps dialing the current endpoints until it succeeds or ctx is done.
func (c *Connection) redial(ctx context.Context) *Sockets {
	ticker := time.NewTicker(c.reconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		sockets, err := c.dialer.Dial(ctx, c.endpoints)
		if err != nil {
			c.log.Debug().Err(err).Msg("reconnect attempt failed")
			continue
		}
		c.lock.Lock()
		c.sockets = sockets
		c.lock.Unlock()
		c.metrics.reconnected()
		c.log.Info().Str("endpoints", c.endpoints.String()).Msg("connection re-established")
		return sockets
	}
}

func (c *Connection) accept(payload string) {
	switch payload {
	case "":
		return
	case Sentinel:
		if c.ready.CompareAndSwap(false, true) {
			c.metrics.handshakeConfirmed()
			c.log.Debug().Msg("handshake confirmed")
		}
		return
	}
	c.mailbox.append(payload)
	c.metrics.messageReceived()
	c.log.Debug().Str("payload", payload).Msg("received")
}

// teardown is the only place where sockets get closed.
func (c *Connection) teardown(sockets *Sockets) {
	if err := sockets.close(); err != nil {
		c.log.Debug().Err(err).Msg("error while closing sockets")
	}
	c.lock.Lock()
	if c.sockets == sockets {
		c.sockets = nil
	}
	c.lock.Unlock()
}
