package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// fakeLink is an in-memory pair of sockets. Tests play the service by writing to
// inbound and reading from sent.
type fakeLink struct {
	inbound      chan string
	sent         chan string
	closed       chan struct{}
	closeOnce    sync.Once
	inCloses     atomic.Int32
	outCloses    atomic.Int32
	releases     atomic.Int32
	blockClose   chan struct{}
	echoSentinel bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		inbound: make(chan string, 100),
		sent:    make(chan string, 100),
		closed:  make(chan struct{}),
	}
}

// drop plays a service that went away: the inbound side reports ErrClosed.
func (l *fakeLink) drop() {
	l.closeOnce.Do(func() { close(l.closed) })
}

type fakeInbound struct{ link *fakeLink }

func (f fakeInbound) Recv(ctx context.Context) (string, error) {
	select {
	case p := <-f.link.inbound:
		return p, nil
	case <-f.link.closed:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f fakeInbound) Close() error {
	if f.link.blockClose != nil {
		<-f.link.blockClose
	}
	f.link.inCloses.Add(1)
	f.link.drop()
	return nil
}

type fakeOutbound struct{ link *fakeLink }

func (f fakeOutbound) Send(payload string) error {
	select {
	case <-f.link.closed:
		return ErrClosed
	default:
	}
	if payload == Sentinel && f.link.echoSentinel {
		f.link.inbound <- Sentinel
	}
	select {
	case f.link.sent <- payload:
	default:
	}
	return nil
}

func (f fakeOutbound) Close() error {
	f.link.outCloses.Add(1)
	return nil
}

// fakeDialer hands out a fresh link on every Dial and remembers the last one. The first
// refuse dials fail with errRefused.
type fakeDialer struct {
	err          error
	echoSentinel bool
	blockClose   chan struct{}
	refuse       atomic.Int32
	refused      atomic.Int32
	dials        atomic.Int32
	lock         sync.Mutex
	last         *fakeLink
}

func (d *fakeDialer) Dial(ctx context.Context, _ Endpoints) (*Sockets, error) {
	if d.err != nil {
		return nil, d.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.refuse.Add(-1) >= 0 {
		d.refused.Add(1)
		return nil, errRefused
	}
	d.dials.Add(1)
	link := newFakeLink()
	link.echoSentinel = d.echoSentinel
	link.blockClose = d.blockClose
	d.lock.Lock()
	d.last = link
	d.lock.Unlock()
	return &Sockets{
		Inbound:  fakeInbound{link},
		Outbound: fakeOutbound{link},
		Release:  func() { link.releases.Add(1) },
	}, nil
}

func (d *fakeDialer) link() *fakeLink {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.last
}

var errRefused = errors.New("connection refused")
