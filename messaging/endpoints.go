package messaging

import (
	"fmt"
	"net"
	"strconv"
)

const (
	// DefaultPubPort is the port on which the service publishes its output.
	DefaultPubPort = 5561
	// DefaultPullPort is the port on which the service pulls its input.
	DefaultPullPort = 5562
)

// Endpoints is the pair of TCP endpoints of the service's message bus. Naming follows
// the service side: the harness subscribes to PubPort and pushes to PullPort.
type Endpoints struct {
	Host     string
	PubPort  int
	PullPort int
}

// DefaultEndpoints returns the standard ports on the given host.
func DefaultEndpoints(host string) Endpoints {
	return Endpoints{Host: host, PubPort: DefaultPubPort, PullPort: DefaultPullPort}
}

// InboundURL is the address the inbound (SUB) socket connects to.
func (e Endpoints) InboundURL() string {
	return tcpURL(e.Host, e.PubPort)
}

// OutboundURL is the address the outbound (PUSH) socket connects to.
func (e Endpoints) OutboundURL() string {
	return tcpURL(e.Host, e.PullPort)
}

func (e Endpoints) String() string {
	return fmt.Sprintf("in=%s out=%s", e.InboundURL(), e.OutboundURL())
}

func tcpURL(host string, port int) string {
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
}
