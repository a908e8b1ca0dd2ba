package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

const (
	subStateRunning = "running"
	subStateDead    = "dead"

	defaultUnitStopTimeout = 10 * time.Second
)

// Unit is the service installed as a systemd unit on this machine. The unit reads its
// configuration from an environment file, which is rewritten before every (re)start.
type Unit struct {
	name        string
	configPath  string
	params      servicedef.UnitParams
	host        string
	httpPort    int
	stopTimeout time.Duration
	runner      Runner
	logger      framework.Logger
}

type UnitOption func(*Unit)

func WithUnitRunner(runner Runner) UnitOption {
	return func(u *Unit) { u.runner = runner }
}

func WithUnitLogger(logger framework.Logger) UnitOption {
	return func(u *Unit) { u.logger = logger }
}

// WithUnitStopTimeout bounds how long Stop waits for the unit to reach the dead state.
func WithUnitStopTimeout(timeout time.Duration) UnitOption {
	return func(u *Unit) { u.stopTimeout = timeout }
}

// WithUnitHTTPPort sets the port of the health resource. Zero disables it.
func WithUnitHTTPPort(port int) UnitOption {
	return func(u *Unit) { u.httpPort = port }
}

// NewUnit returns a Unit for the systemd unit name configured through configPath.
func NewUnit(name, configPath string, params servicedef.UnitParams, opts ...UnitOption) *Unit {
	u := &Unit{
		name:        name,
		configPath:  configPath,
		params:      params,
		host:        "127.0.0.1",
		stopTimeout: defaultUnitStopTimeout,
		logger:      framework.NullLogger(),
	}
	for _, o := range opts {
		o(u)
	}
	if u.runner == nil {
		u.runner = ExecRunner{Logger: u.logger}
	}
	return u
}

func (u *Unit) Name() string {
	return u.name
}

// Params returns the configuration the unit is started with.
func (u *Unit) Params() servicedef.UnitParams {
	return u.params
}

// Configure merges overrides into the configuration and restarts the unit with it.
func (u *Unit) Configure(ctx context.Context, overrides servicedef.UnitParams) error {
	u.params = u.params.Merge(overrides)
	return u.Restart(ctx)
}

func (u *Unit) Start(ctx context.Context) error {
	if err := servicedef.WriteEnvFile(u.configPath, u.params); err != nil {
		return err
	}
	return u.systemctl(ctx, "start")
}

// Stop stops the unit and waits until systemd reports it dead.
func (u *Unit) Stop(ctx context.Context) error {
	if err := u.systemctl(ctx, "stop"); err != nil {
		return err
	}
	return u.AwaitStopped(ctx, u.stopTimeout)
}

func (u *Unit) Restart(ctx context.Context) error {
	if err := servicedef.WriteEnvFile(u.configPath, u.params); err != nil {
		return err
	}
	if err := u.systemctl(ctx, "restart"); err != nil {
		return err
	}
	running, err := u.Running(ctx)
	if err != nil {
		return err
	}
	if !running {
		return fmt.Errorf("unit %s is not running after restart", u.name)
	}
	return nil
}

// Running reports whether systemd shows the unit in the running sub-state.
func (u *Unit) Running(ctx context.Context) (bool, error) {
	state, err := u.subState(ctx)
	if err != nil {
		return false, err
	}
	return state == subStateRunning, nil
}

func (u *Unit) subState(ctx context.Context) (string, error) {
	result, err := u.runner.Run(ctx, Command{
		Binary: "systemctl",
		Args:   []string{"show", "-p", "SubState", u.name},
	})
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(result.Stdout), "\n") {
		if value, ok := strings.CutPrefix(strings.TrimSpace(line), "SubState="); ok {
			return value, nil
		}
	}
	return "", fmt.Errorf("no SubState reported for unit %s", u.name)
}

// AwaitStopped waits until the unit reaches the dead sub-state.
func (u *Unit) AwaitStopped(ctx context.Context, timeout time.Duration) error {
	return framework.Eventually(timeout, 0, func() error {
		state, err := u.subState(ctx)
		if err != nil {
			return err
		}
		if state != subStateDead {
			return fmt.Errorf("unit %s is %s", u.name, state)
		}
		return nil
	})
}

func (u *Unit) Logs(ctx context.Context) (string, error) {
	result, err := u.runner.Run(ctx, Command{
		Binary: "journalctl",
		Args:   []string{"-o", "short-precise", "-u", u.name, "--no-pager"},
	})
	if err != nil {
		return "", err
	}
	return string(result.Stdout), nil
}

func (u *Unit) Address(ctx context.Context) (Address, error) {
	return Address{
		Host:     u.host,
		PubPort:  u.params.PubPort.OrElse(servicedef.DefaultPubPort),
		PullPort: u.params.PullPort.OrElse(servicedef.DefaultPullPort),
		HTTPPort: u.httpPort,
	}, nil
}

// MetricsFile returns the file the unit writes its metrics into, or "" if the metrics
// output was left at its default.
func (u *Unit) MetricsFile() string {
	return u.params.MetricsOutput.StringValue()
}

func (u *Unit) Capabilities() framework.Capabilities {
	caps := framework.Capabilities{CapabilityConfigure, CapabilityLogs, CapabilityRestart}
	if u.MetricsFile() != "" {
		caps = caps.With(CapabilityMetrics)
	}
	if u.httpPort != 0 {
		caps = caps.With(CapabilityHealth)
	}
	return caps
}

func (u *Unit) systemctl(ctx context.Context, operation string) error {
	u.logger.Printf("systemctl %s %s", operation, u.name)
	_, err := u.runner.Run(ctx, Command{Binary: "systemctl", Args: []string{operation, u.name}})
	if err != nil {
		return fmt.Errorf("cannot %s unit %s: %w", operation, u.name, err)
	}
	return nil
}
