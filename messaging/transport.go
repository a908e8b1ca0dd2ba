package messaging

import (
	"context"
	"errors"
)

// Inbound is the receiving half of a connection.
//
// Recv blocks until a payload arrives or ctx is done, in which case it returns ctx.Err().
// The receiver uses a short deadline on ctx so that it can observe shutdown while idle.
type Inbound interface {
	Recv(ctx context.Context) (string, error)
	Close() error
}

// Outbound is the sending half of a connection.
type Outbound interface {
	Send(payload string) error
	Close() error
}

// Sockets is what a Dialer hands to a Connection. The Connection's receiver owns it from
// then on and is the only code that closes it.
type Sockets struct {
	Inbound  Inbound
	Outbound Outbound
	// Release terminates the state the sockets were created from. It is called after
	// both sockets are closed and may be nil.
	Release func()
}

func (s *Sockets) close() error {
	var errs []error
	if s.Inbound != nil {
		if err := s.Inbound.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Outbound != nil {
		if err := s.Outbound.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Release != nil {
		s.Release()
	}
	return errors.Join(errs...)
}

// Dialer opens both sockets of a connection. Implementations must not leave anything open
// when they return an error.
type Dialer interface {
	Dial(ctx context.Context, endpoints Endpoints) (*Sockets, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, endpoints Endpoints) (*Sockets, error)

func (f DialerFunc) Dial(ctx context.Context, endpoints Endpoints) (*Sockets, error) {
	return f(ctx, endpoints)
}
