package orchestration

import (
	"context"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
)

// External is a service that someone else runs. Its lifecycle operations do nothing.
type External struct {
	address     Address
	metricsFile string
}

// NewExternal returns a Service at addr. If metricsFile is not empty the service is
// expected to write its metrics there.
func NewExternal(addr Address, metricsFile string) *External {
	return &External{address: addr, metricsFile: metricsFile}
}

func (e *External) Start(context.Context) error { return nil }

func (e *External) Stop(context.Context) error { return nil }

func (e *External) Restart(context.Context) error { return ErrUnsupported }

func (e *External) Running(context.Context) (bool, error) { return true, nil }

func (e *External) Logs(context.Context) (string, error) { return "", ErrUnsupported }

func (e *External) Address(context.Context) (Address, error) { return e.address, nil }

func (e *External) MetricsFile() string { return e.metricsFile }

func (e *External) Capabilities() framework.Capabilities {
	var caps framework.Capabilities
	if e.metricsFile != "" {
		caps = caps.With(CapabilityMetrics)
	}
	if e.address.HTTPPort != 0 {
		caps = caps.With(CapabilityHealth)
	}
	return caps
}
