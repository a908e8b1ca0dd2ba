package servicedouble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Responder decides what the relay publishes for one pulled payload.
type Responder func(payload string) []string

// Echo publishes every payload unchanged.
func Echo(payload string) []string {
	return []string{payload}
}

// Replies answers the payloads found in replies and echoes everything else.
func Replies(replies map[string][]string) Responder {
	return func(payload string) []string {
		if out, ok := replies[payload]; ok {
			return out
		}
		return []string{payload}
	}
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithResponder replaces the echo.
func WithResponder(responder Responder) RelayOption {
	return func(r *Relay) { r.responder = responder }
}

// WithMetricsFile makes the relay rewrite path after every relayed message, in the same
// JSON shape the service uses.
func WithMetricsFile(path string) RelayOption {
	return func(r *Relay) { r.metricsPath = path }
}

// WithPorts binds fixed ports instead of letting the system pick them.
func WithPorts(pubPort, pullPort int) RelayOption {
	return func(r *Relay) { r.pubPort, r.pullPort = pubPort, pullPort }
}

// Relay binds a PULL and a PUB socket on the loopback interface and forwards payloads
// from the former to the latter.
type Relay struct {
	host        string
	pubPort     int
	pullPort    int
	responder   Responder
	metricsPath string

	pull   zmq4.Socket
	pub    zmq4.Socket
	cancel context.CancelFunc
	done   chan struct{}

	ingress   uint64
	egress    uint64
	received  []string
	lock      sync.Mutex
	closeOnce sync.Once
}

// NewRelay binds both sockets and starts relaying.
func NewRelay(opts ...RelayOption) (*Relay, error) {
	r := &Relay{
		host:      "127.0.0.1",
		responder: Echo,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.pull = zmq4.NewPull(ctx)
	r.pub = zmq4.NewPub(ctx)

	if err := r.pull.Listen(listenURL(r.host, r.pullPort)); err != nil {
		r.abort()
		return nil, fmt.Errorf("unable to bind PULL: %w", err)
	}
	if err := r.pub.Listen(listenURL(r.host, r.pubPort)); err != nil {
		r.abort()
		return nil, fmt.Errorf("unable to bind PUB: %w", err)
	}
	r.pullPort = boundPort(r.pull.Addr())
	r.pubPort = boundPort(r.pub.Addr())

	if err := r.writeMetrics(); err != nil {
		r.abort()
		return nil, err
	}

	go r.run(ctx)
	return r, nil
}

func (r *Relay) abort() {
	r.cancel()
	_ = r.pull.Close()
	_ = r.pub.Close()
	close(r.done)
}

// Host is the address both sockets are bound to.
func (r *Relay) Host() string { return r.host }

// PubPort is the port subscribers connect to.
func (r *Relay) PubPort() int { return r.pubPort }

// PullPort is the port pushers connect to.
func (r *Relay) PullPort() int { return r.pullPort }

// Received returns every payload pulled so far, in order.
func (r *Relay) Received() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.received...)
}

// Close stops relaying and releases both sockets. It waits for the relay goroutine.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		r.cancel()
		_ = r.pull.Close()
		_ = r.pub.Close()
		<-r.done
	})
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)
	for {
		msg, err := r.pull.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		payload := string(bytes.Join(msg.Frames, nil))

		r.lock.Lock()
		r.received = append(r.received, payload)
		r.ingress++
		r.lock.Unlock()

		for _, reply := range r.responder(payload) {
			if err := r.pub.Send(zmq4.NewMsgString(reply)); err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			r.lock.Lock()
			r.egress++
			r.lock.Unlock()
		}
		_ = r.writeMetrics()
	}
}

func (r *Relay) writeMetrics() error {
	if r.metricsPath == "" {
		return nil
	}
	r.lock.Lock()
	data, err := json.Marshal(map[string]uint64{
		"messageIngress": r.ingress,
		"messageEgress":  r.egress,
	})
	r.lock.Unlock()
	if err != nil {
		return err
	}
	tmp := r.metricsPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("unable to write metrics: %w", err)
	}
	return os.Rename(tmp, r.metricsPath)
}

func listenURL(host string, port int) string {
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func boundPort(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	if addr == nil {
		return 0
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}
