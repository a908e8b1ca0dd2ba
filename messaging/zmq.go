package messaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"
)

// ZMQDialer connects a SUB socket to the service's PUB port and a PUSH socket to its
// PULL port. The zero value fails fast: every endpoint is dialed exactly once.
type ZMQDialer struct {
	// DialTimeout bounds a single TCP connect. Zero leaves the library default.
	DialTimeout time.Duration
	// Retries is the number of extra dial attempts, spaced by RetryInterval.
	Retries       int
	RetryInterval time.Duration
	// Logger receives the socket library's own diagnostics. Nil discards them.
	Logger *zerolog.Logger
}

func (d ZMQDialer) options() []zmq4.Option {
	var out io.Writer = io.Discard
	if d.Logger != nil {
		out = d.Logger.With().Str("component", "zmq4").Logger()
	}
	opts := []zmq4.Option{
		zmq4.WithLogger(log.New(out, "", 0)),
		zmq4.WithDialerMaxRetries(d.Retries),
	}
	if d.RetryInterval > 0 {
		opts = append(opts, zmq4.WithDialerRetry(d.RetryInterval))
	}
	if d.DialTimeout > 0 {
		opts = append(opts, zmq4.WithDialerTimeout(d.DialTimeout))
	}
	return opts
}

func (d ZMQDialer) Dial(ctx context.Context, endpoints Endpoints) (*Sockets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sharedCtx, terminate := context.WithCancel(context.Background())
	opts := d.options()

	subCtx, subCancel := context.WithCancel(sharedCtx)
	sub := zmq4.NewSub(subCtx, opts...)
	if err := sub.Dial(endpoints.InboundURL()); err != nil {
		_ = sub.Close()
		subCancel()
		terminate()
		return nil, fmt.Errorf("unable to connect SUB to %s: %w", endpoints.InboundURL(), err)
	}
	if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		_ = sub.Close()
		subCancel()
		terminate()
		return nil, fmt.Errorf("unable to subscribe: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = sub.Close()
		subCancel()
		terminate()
		return nil, err
	}

	push := zmq4.NewPush(sharedCtx, opts...)
	if err := push.Dial(endpoints.OutboundURL()); err != nil {
		_ = push.Close()
		_ = sub.Close()
		subCancel()
		terminate()
		return nil, fmt.Errorf("unable to connect PUSH to %s: %w", endpoints.OutboundURL(), err)
	}

	return &Sockets{
		Inbound:  newZMQInbound(sub, subCancel),
		Outbound: &zmqOutbound{sock: push},
		Release:  terminate,
	}, nil
}

type recvResult struct {
	payload string
	err     error
}

// zmqInbound turns the blocking Recv of the socket into one that honors a context. A
// single pump goroutine owns the socket reads and hands each message over unbuffered,
// so a receive that times out never loses a message.
type zmqInbound struct {
	sock      zmq4.Socket
	cancel    context.CancelFunc
	msgs      chan recvResult
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newZMQInbound(sock zmq4.Socket, cancel context.CancelFunc) *zmqInbound {
	in := &zmqInbound{
		sock:   sock,
		cancel: cancel,
		msgs:   make(chan recvResult),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go in.pump()
	return in
}

func (in *zmqInbound) pump() {
	defer close(in.done)
	for {
		msg, err := in.sock.Recv()
		r := recvResult{err: err}
		if err == nil {
			r.payload = string(bytes.Join(msg.Frames, nil))
		}
		select {
		case in.msgs <- r:
		case <-in.quit:
			return
		}
		if err != nil {
			return
		}
	}
}

func (in *zmqInbound) Recv(ctx context.Context) (string, error) {
	select {
	case r := <-in.msgs:
		if r.err != nil {
			return "", fmt.Errorf("%w: %v", ErrClosed, r.err)
		}
		return r.payload, nil
	case <-in.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (in *zmqInbound) Close() error {
	in.closeOnce.Do(func() {
		close(in.quit)
		in.cancel()
		in.closeErr = in.sock.Close()
		<-in.done
	})
	return in.closeErr
}

type zmqOutbound struct {
	sock   zmq4.Socket
	closed atomic.Bool
}

func (out *zmqOutbound) Send(payload string) error {
	if out.closed.Load() {
		return ErrClosed
	}
	return out.sock.Send(zmq4.NewMsgString(payload))
}

func (out *zmqOutbound) Close() error {
	if !out.closed.CompareAndSwap(false, true) {
		return nil
	}
	return out.sock.Close()
}
