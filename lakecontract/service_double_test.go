package lakecontract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/orchestration"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedouble"
)

// relayService runs servicedouble.Relay as an orchestration.Service. Every restart binds
// new ports, like a container does.
type relayService struct {
	metricsFile string
	health      *servicedouble.HealthServer

	lock       sync.Mutex
	relay      *servicedouble.Relay
	params     servicedef.UnitParams
	logs       strings.Builder
	restarts   int
	configures int
}

func newRelayService(t *testing.T) *relayService {
	health, err := servicedouble.NewHealthServer()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(health.Close)
	return &relayService{
		metricsFile: filepath.Join(t.TempDir(), "metrics.json"),
		health:      health,
	}
}

func (s *relayService) Start(context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.relay != nil {
		return nil
	}
	relay, err := servicedouble.NewRelay(servicedouble.WithMetricsFile(s.metricsFile))
	if err != nil {
		return err
	}
	s.relay = relay
	s.logs.WriteString("host systemd[1]: Started openbank lake message relay.\n")
	s.logs.WriteString("host lake[1]: Log level set to " + s.params.LogLevel.OrElse(servicedef.DefaultLogLevel) + "\n")
	s.logs.WriteString("host lake[1]: Program starting\n")
	return nil
}

func (s *relayService) Stop(context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.relay != nil {
		s.relay.Close()
		s.relay = nil
		s.logs.WriteString("host lake[1]: Program stopping\n")
	}
	return nil
}

func (s *relayService) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	s.lock.Lock()
	s.restarts++
	s.lock.Unlock()
	return s.Start(ctx)
}

func (s *relayService) Configure(ctx context.Context, overrides servicedef.UnitParams) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	s.lock.Lock()
	s.params = s.params.Merge(overrides)
	s.configures++
	s.lock.Unlock()
	return s.Start(ctx)
}

func (s *relayService) Running(context.Context) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.relay != nil, nil
}

func (s *relayService) Logs(context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.logs.String(), nil
}

func (s *relayService) Address(context.Context) (orchestration.Address, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.relay == nil {
		return orchestration.Address{}, errors.New("relay is not running")
	}
	return orchestration.Address{
		Host:     s.relay.Host(),
		PubPort:  s.relay.PubPort(),
		PullPort: s.relay.PullPort(),
		HTTPPort: s.health.Port(),
	}, nil
}

func (s *relayService) MetricsFile() string { return s.metricsFile }

func (s *relayService) Capabilities() framework.Capabilities {
	return framework.Capabilities(orchestration.AllCapabilities).With()
}
