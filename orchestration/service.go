package orchestration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/messaging"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

const (
	CapabilityRestart   = "restart"
	CapabilityConfigure = "configure"
	CapabilityLogs      = "logs"
	CapabilityMetrics   = "metrics"
	CapabilityHealth    = "health"
)

// AllCapabilities lists every optional capability a Service may report.
var AllCapabilities = []string{
	CapabilityConfigure, CapabilityHealth, CapabilityLogs, CapabilityMetrics, CapabilityRestart,
}

// ErrUnsupported is returned by operations a Service cannot perform.
var ErrUnsupported = errors.New("operation not supported by this service setup")

// Service is the service under test.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Restart stops and starts the service. Its Address may change.
	Restart(ctx context.Context) error
	Running(ctx context.Context) (bool, error)
	// Logs returns everything the service logged so far.
	Logs(ctx context.Context) (string, error)
	Address(ctx context.Context) (Address, error)
	Capabilities() framework.Capabilities
}

// Address is where the harness reaches the service.
type Address struct {
	Host     string
	PubPort  int
	PullPort int
	// HTTPPort is 0 if the service has no reachable health resource.
	HTTPPort int
}

func (a Address) Endpoints() messaging.Endpoints {
	return messaging.Endpoints{Host: a.Host, PubPort: a.PubPort, PullPort: a.PullPort}
}

// HealthURL returns the base URL of the HTTP resources, or "" if there are none.
func (a Address) HealthURL() string {
	if a.HTTPPort == 0 {
		return ""
	}
	return "http://" + net.JoinHostPort(a.Host, strconv.Itoa(a.HTTPPort))
}

func (a Address) String() string {
	return fmt.Sprintf("%s (http %d)", a.Endpoints(), a.HTTPPort)
}

// Configurable is implemented by services that can be restarted with a changed
// configuration. Services implementing it report CapabilityConfigure.
type Configurable interface {
	// Configure merges overrides into the current configuration and restarts the service
	// with the result. Its Address may change.
	Configure(ctx context.Context, overrides servicedef.UnitParams) error
}

// MetricsSource is implemented by services whose metrics file the harness can read.
type MetricsSource interface {
	MetricsFile() string
}
