package orchestration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/alessio/shellescape"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
)

const defaultGracePeriod = 5 * time.Second

// Command is a subprocess to execute.
type Command struct {
	Binary string
	Args   []string
	// Env is added to the environment of the harness, as KEY=VALUE.
	Env []string
	// GracePeriod is how long to wait after SIGTERM before the process is killed. Zero
	// means 5 seconds.
	GracePeriod time.Duration
}

// String renders the command as it could be typed into a shell.
func (c Command) String() string {
	var b commandBuilder
	for _, e := range c.Env {
		b.add(e)
	}
	b.add(c.Binary)
	b.add(c.Args...)
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// Result is the outcome of a finished subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 if the process was killed.
	ExitCode int
	Duration time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands as local subprocesses.
type ExecRunner struct {
	Logger framework.Logger
}

// Run executes cmd and waits for it. If ctx is cancelled the process group gets SIGTERM
// and the leader is killed after the grace period. Whatever is left of the group when
// the leader is gone gets SIGKILL before Run returns. A non-zero exit code is an error.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("binary is required")
	}
	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = defaultGracePeriod
	}
	if r.Logger != nil {
		r.Logger.Printf("Running: %s", cmd)
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec
	if len(cmd.Env) != 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	if ctx.Err() != nil && c.Process != nil {
		_ = syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("%s: killed by context: %w", cmd.Binary, ctx.Err())
		}
		return result, fmt.Errorf("%s: exit code %d: %w (stderr: %s)",
			cmd.Binary, result.ExitCode, err, strings.TrimSpace(stderr.String()))
	}
	return result, nil
}
