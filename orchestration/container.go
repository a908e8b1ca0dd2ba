package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

const (
	defaultStartupTimeout = 60 * time.Second
	containerStopTimeout  = 10 * time.Second
)

// Container is the service running in a docker container started by the harness. Ports
// are published on random host ports, so the Address changes after a restart.
type Container struct {
	image          string
	params         servicedef.UnitParams
	httpPort       int
	startupTimeout time.Duration
	logger         framework.Logger

	lock      sync.Mutex
	container testcontainers.Container
}

type ContainerOption func(*Container)

// WithContainerHTTPPort sets the container port of the health resource. Zero disables it.
func WithContainerHTTPPort(port int) ContainerOption {
	return func(c *Container) { c.httpPort = port }
}

func WithContainerStartupTimeout(timeout time.Duration) ContainerOption {
	return func(c *Container) { c.startupTimeout = timeout }
}

func WithContainerLogger(logger framework.Logger) ContainerOption {
	return func(c *Container) { c.logger = logger }
}

func NewContainer(image string, params servicedef.UnitParams, opts ...ContainerOption) *Container {
	c := &Container{
		image:          image,
		params:         params,
		startupTimeout: defaultStartupTimeout,
		logger:         framework.NullLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Container) pubPort() nat.Port {
	return tcpPort(c.params.PubPort.OrElse(servicedef.DefaultPubPort))
}

func (c *Container) pullPort() nat.Port {
	return tcpPort(c.params.PullPort.OrElse(servicedef.DefaultPullPort))
}

func tcpPort(port int) nat.Port {
	return nat.Port(strconv.Itoa(port) + "/tcp")
}

func (c *Container) request() testcontainers.ContainerRequest {
	exposed := []string{string(c.pubPort()), string(c.pullPort())}
	if c.httpPort != 0 {
		exposed = append(exposed, string(tcpPort(c.httpPort)))
	}
	return testcontainers.ContainerRequest{
		Image:        c.image,
		ExposedPorts: exposed,
		Env:          c.params.Environment(),
		WaitingFor:   wait.ForListeningPort(c.pubPort()).WithStartupTimeout(c.startupTimeout),
	}
}

// Start creates and starts the container, or starts it again if it was created before.
func (c *Container) Start(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.container != nil {
		return c.container.Start(ctx)
	}
	c.logger.Printf("Starting container from image %s", c.image)
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: c.request(),
		Started:          true,
	})
	if err != nil {
		if container != nil {
			_ = container.Terminate(context.Background())
		}
		return fmt.Errorf("cannot start container from image %s: %w", c.image, err)
	}
	c.container = container
	return nil
}

// Stop removes the container. A later Start creates a fresh one.
func (c *Container) Stop(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.container == nil {
		return nil
	}
	err := c.container.Terminate(ctx)
	c.container = nil
	return err
}

func (c *Container) Restart(ctx context.Context) error {
	container, err := c.current()
	if err != nil {
		return err
	}
	timeout := containerStopTimeout
	if err := container.Stop(ctx, &timeout); err != nil {
		return fmt.Errorf("cannot stop container: %w", err)
	}
	if err := container.Start(ctx); err != nil {
		return fmt.Errorf("cannot start container: %w", err)
	}
	return nil
}

// Configure merges overrides into the container environment and replaces the container
// with a fresh one started from it.
func (c *Container) Configure(ctx context.Context, overrides servicedef.UnitParams) error {
	if err := c.Stop(ctx); err != nil {
		return fmt.Errorf("cannot stop container: %w", err)
	}
	c.lock.Lock()
	c.params = c.params.Merge(overrides)
	c.lock.Unlock()
	return c.Start(ctx)
}

func (c *Container) Running(ctx context.Context) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.container != nil && c.container.IsRunning(), nil
}

func (c *Container) Logs(ctx context.Context) (string, error) {
	container, err := c.current()
	if err != nil {
		return "", err
	}
	reader, err := container.Logs(ctx)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	return string(data), err
}

// Address resolves the host ports currently mapped to the container ports.
func (c *Container) Address(ctx context.Context) (Address, error) {
	container, err := c.current()
	if err != nil {
		return Address{}, err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return Address{}, err
	}
	pub, err := container.MappedPort(ctx, c.pubPort())
	if err != nil {
		return Address{}, err
	}
	pull, err := container.MappedPort(ctx, c.pullPort())
	if err != nil {
		return Address{}, err
	}
	addr := Address{Host: host, PubPort: pub.Int(), PullPort: pull.Int()}
	if c.httpPort != 0 {
		httpPort, err := container.MappedPort(ctx, tcpPort(c.httpPort))
		if err != nil {
			return Address{}, err
		}
		addr.HTTPPort = httpPort.Int()
	}
	return addr, nil
}

func (c *Container) Capabilities() framework.Capabilities {
	caps := framework.Capabilities{CapabilityConfigure, CapabilityLogs, CapabilityRestart}
	if c.httpPort != 0 {
		caps = caps.With(CapabilityHealth)
	}
	return caps
}

func (c *Container) current() (testcontainers.Container, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.container == nil {
		return nil, errors.New("container is not started")
	}
	return c.container, nil
}
