package lakecontract

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jancajthaml-openbank/lake-contract-tests/config"
	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/messaging"
	"github.com/jancajthaml-openbank/lake-contract-tests/orchestration"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

// Harness owns the service under test and the single messaging Connection every test
// talks to it through.
type Harness struct {
	cfg      config.Config
	service  orchestration.Service
	conn     *messaging.Connection
	registry *prometheus.Registry
	log      zerolog.Logger
	output   io.Writer
	address  orchestration.Address
}

type HarnessOption func(*harnessOptions)

type harnessOptions struct {
	log    zerolog.Logger
	output io.Writer
	dialer messaging.Dialer
}

// WithLogger sets the structured logger of the harness and its Connection.
func WithLogger(log zerolog.Logger) HarnessOption {
	return func(o *harnessOptions) { o.log = log }
}

// WithOutput sets where progress, such as waiting for the service to become healthy, is
// printed.
func WithOutput(w io.Writer) HarnessOption {
	return func(o *harnessOptions) { o.output = w }
}

// WithDialer replaces the ZeroMQ dialer of the Connection.
func WithDialer(d messaging.Dialer) HarnessOption {
	return func(o *harnessOptions) { o.dialer = d }
}

func NewHarness(cfg config.Config, service orchestration.Service, opts ...HarnessOption) (*Harness, error) {
	o := harnessOptions{log: zerolog.Nop(), output: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	metrics, err := messaging.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	connOpts := []messaging.Option{
		messaging.WithLogger(o.log),
		messaging.WithMetrics(metrics),
		messaging.WithReceiveTimeout(cfg.Timeouts.Receive),
		messaging.WithHandshakeBackoff(cfg.Timeouts.HandshakeBackoff),
	}
	if o.dialer != nil {
		connOpts = append(connOpts, messaging.WithDialer(o.dialer))
	}
	endpoints := messaging.Endpoints{Host: cfg.Host, PubPort: cfg.Ports.Pub, PullPort: cfg.Ports.Pull}

	return &Harness{
		cfg:      cfg,
		service:  service,
		conn:     messaging.NewConnection(endpoints, connOpts...),
		registry: registry,
		log:      o.log.With().Str("component", "harness").Logger(),
		output:   o.output,
	}, nil
}

func (h *Harness) Config() config.Config { return h.cfg }

func (h *Harness) Service() orchestration.Service { return h.service }

func (h *Harness) Connection() *messaging.Connection { return h.conn }

// Registry holds the harness-side messaging counters.
func (h *Harness) Registry() *prometheus.Registry { return h.registry }

// Address is where the service was reached by the last Setup or Restart.
func (h *Harness) Address() orchestration.Address { return h.address }

func (h *Harness) Capabilities() framework.Capabilities {
	return h.service.Capabilities()
}

// Setup starts the service, waits for it to become healthy and connects to it. It returns
// only after a successful handshake.
func (h *Harness) Setup(ctx context.Context) error {
	h.log.Info().Msg("starting service")
	if err := h.service.Start(ctx); err != nil {
		return fmt.Errorf("cannot start service: %w", err)
	}
	return h.connect(ctx)
}

// Teardown disconnects and stops the service.
func (h *Harness) Teardown(ctx context.Context) error {
	h.conn.Stop()
	h.log.Info().Msg("stopping service")
	return h.service.Stop(ctx)
}

// Restart disconnects, restarts the service and connects to it again, at its new address
// if it moved. The mailbox survives.
func (h *Harness) Restart(ctx context.Context) error {
	h.conn.Stop()
	h.log.Info().Msg("restarting service")
	if err := h.service.Restart(ctx); err != nil {
		return fmt.Errorf("cannot restart service: %w", err)
	}
	return h.connect(ctx)
}

// Reconfigure disconnects, restarts the service with overrides merged into its
// configuration and connects to it again. It returns orchestration.ErrUnsupported if the
// service cannot be reconfigured.
func (h *Harness) Reconfigure(ctx context.Context, overrides servicedef.UnitParams) error {
	configurable, ok := h.service.(orchestration.Configurable)
	if !ok {
		return orchestration.ErrUnsupported
	}
	h.conn.Stop()
	h.log.Info().Msg("reconfiguring service")
	if err := configurable.Configure(ctx, overrides); err != nil {
		return fmt.Errorf("cannot reconfigure service: %w", err)
	}
	return h.connect(ctx)
}

// Handshake confirms the service relays messages, within the configured handshake timeout.
func (h *Harness) Handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeouts.Handshake)
	defer cancel()
	if err := h.conn.Handshake(ctx); err != nil {
		return fmt.Errorf("handshake with %s failed: %w", h.conn.Endpoints(), err)
	}
	return nil
}

func (h *Harness) connect(ctx context.Context) error {
	addr, err := h.service.Address(ctx)
	if err != nil {
		return fmt.Errorf("cannot resolve service address: %w", err)
	}
	h.address = addr
	if h.service.Capabilities().Has(orchestration.CapabilityHealth) && addr.HealthURL() != "" {
		probe := framework.NewServiceProbe(addr.HealthURL(), framework.ZerologPrintf(h.log))
		if err := probe.AwaitHealthy(h.cfg.Timeouts.Await, h.output); err != nil {
			return err
		}
	}
	if err := h.conn.SetEndpoints(addr.Endpoints()); err != nil {
		return err
	}
	if err := h.conn.Start(ctx); err != nil {
		return err
	}
	h.log.Info().Str("address", addr.String()).Msg("connected")
	return h.Handshake(ctx)
}
