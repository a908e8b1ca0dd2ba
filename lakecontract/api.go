package lakecontract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
	"github.com/jancajthaml-openbank/lake-contract-tests/logcheck"
	"github.com/jancajthaml-openbank/lake-contract-tests/messaging"
	"github.com/jancajthaml-openbank/lake-contract-tests/orchestration"
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

const (
	responsePollInterval = 10 * time.Millisecond
	quietPeriod          = 200 * time.Millisecond
	logsTimeout          = 2 * time.Second
	logsDeadline         = 5 * time.Second
	metricsTimeout       = 3 * time.Second
)

// T represents a test or subtest in the lake contract suite.
//
// It implements the same basic functionality as Go's testing.T, but outside of the Go test
// runner. To make assertions, pass the *T to the assert and require packages as if it was a
// *testing.T.
//
// Every T shares the Harness, and so the one Connection and its mailbox, with every other
// test. Tests should send payloads from UniquePayload and only look for those.
type T struct {
	context *framework.Context
	harness *Harness
	sent    []string
}

func newT(context *framework.Context, harness *Harness) *T {
	return &T{context: context, harness: harness}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest with its own T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newT(c, t.harness))
	})
}

// Debug logs some debug output for the test. It is shown if the test fails and debug output
// was requested.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer schedules fn to run when the test finishes.
func (t *T) Defer(fn func()) {
	t.context.Defer(fn)
}

func (t *T) Harness() *Harness {
	return t.harness
}

func (t *T) Connection() *messaging.Connection {
	return t.harness.Connection()
}

// SkipWithReason ends the test without failing it.
func (t *T) SkipWithReason(reason string) {
	t.context.SkipWithReason(reason)
}

// RequireCapability skips this test if the service setup does not support capability.
func (t *T) RequireCapability(capability string) {
	if !t.harness.Capabilities().Has(capability) {
		t.SkipWithReason(fmt.Sprintf("service setup does not have capability %q", capability))
	}
}

// UniquePayload returns a payload no other test sends.
func (t *T) UniquePayload(prefix string) string {
	return UniquePayload(prefix)
}

// Send sends each payload to the service, in order.
func (t *T) Send(payloads ...string) {
	for _, p := range payloads {
		t.Debug("sending %q", p)
		require.NoError(t, t.Connection().Send(p))
		t.sent = append(t.sent, p)
	}
}

// RequireResponse waits until each message arrived and acknowledges it. The test fails
// and exits if one does not arrive within the await timeout.
func (t *T) RequireResponse(messages ...string) {
	conn := t.Connection()
	timeout := t.harness.Config().Timeouts.Await
	for _, m := range messages {
		result := framework.Poll(func() bool { return conn.Contains(m) }, responsePollInterval, timeout)
		if result != framework.PollSucceeded {
			require.Fail(t, "timed out waiting for message",
				"expected %q within %s; mailbox was %v", m, timeout, conn.Mailbox())
		}
		conn.Ack(m)
		t.Debug("received %q", m)
	}
}

// RequireNoOtherMessages waits briefly and then fails if anything this test sent, or the
// Sentinel, is still unacknowledged in the mailbox.
func (t *T) RequireNoOtherMessages() {
	time.Sleep(quietPeriod)
	mailbox := t.Connection().Mailbox()
	assert.NotContains(t, mailbox, messaging.Sentinel, "handshake sentinel leaked into the mailbox")
	for _, p := range t.sent {
		assert.NotContains(t, mailbox, p, "unexpected extra copy of a message")
	}
}

// MessagesInMailbox returns the unacknowledged messages this test sent, in receive order.
func (t *T) MessagesInMailbox() []string {
	var ret []string
	for _, m := range t.Connection().Mailbox() {
		for _, p := range t.sent {
			if m == p {
				ret = append(ret, m)
				break
			}
		}
	}
	return ret
}

// AwaitMessages waits until n messages sent by this test are in the mailbox and returns
// them in receive order, without acknowledging them.
func (t *T) AwaitMessages(n int) []string {
	var got []string
	result := framework.Poll(func() bool {
		got = t.MessagesInMailbox()
		return len(got) >= n
	}, responsePollInterval, t.harness.Config().Timeouts.Await)
	if result != framework.PollSucceeded {
		require.Fail(t, "timed out waiting for messages", "expected %d, got %v", n, got)
	}
	return got
}

// Handshake repeats the handshake with the service.
func (t *T) Handshake() {
	require.NoError(t, t.harness.Handshake(context.Background()))
	assert.True(t, t.Connection().Ready())
}

// RestartService restarts the service and reconnects. The test is skipped if the service
// setup cannot restart.
func (t *T) RestartService() {
	t.RequireCapability(orchestration.CapabilityRestart)
	require.NoError(t, t.harness.Restart(context.Background()))
	t.Debug("service restarted, now at %s", t.harness.Address())
}

// ReconfigureService restarts the service with overrides merged into its configuration.
// The test is skipped if the service setup cannot be reconfigured.
func (t *T) ReconfigureService(overrides servicedef.UnitParams) {
	t.RequireCapability(orchestration.CapabilityConfigure)
	require.NoError(t, t.harness.Reconfigure(context.Background(), overrides))
	t.Debug("service reconfigured, now at %s", t.harness.Address())
}

// RequireRunning fails unless the service reports it is running within the await timeout.
func (t *T) RequireRunning() {
	err := framework.Eventually(t.harness.Config().Timeouts.Await, 0, func() error {
		running, err := t.harness.Service().Running(context.Background())
		if err != nil {
			return err
		}
		if !running {
			return errors.New("service is not running")
		}
		return nil
	})
	require.NoError(t, err)
}

// RequireHealthy fails unless the health resource of the service answers.
func (t *T) RequireHealthy() {
	t.RequireCapability(orchestration.CapabilityHealth)
	probe := framework.NewServiceProbe(t.harness.Address().HealthURL(), t.context.DebugLogger())
	ctx, cancel := context.WithTimeout(context.Background(), t.harness.Config().Timeouts.Await)
	defer cancel()
	require.NoError(t, probe.Healthy(ctx))
}

// RequireLogLines fails unless every expected fragment appears in the service log after
// its last start marker.
func (t *T) RequireLogLines(expected ...string) {
	t.RequireCapability(orchestration.CapabilityLogs)
	marker := t.harness.Config().Service.StartMarker
	err := framework.WithDeadline(logsDeadline, func(ctx context.Context) error {
		return framework.Eventually(logsTimeout, 0, func() error {
			logs, err := t.harness.Service().Logs(ctx)
			if err != nil {
				return err
			}
			lines := logcheck.LinesSince(logs, marker)
			if missing := logcheck.Missing(lines, expected); len(missing) != 0 {
				return fmt.Errorf("%s not found in logs:\n%s",
					strings.Join(missing, ", "), strings.Join(lines, "\n"))
			}
			return nil
		})
	})
	require.NoError(t, err)
}

// RequireMetricsKeys fails unless the service metrics file holds exactly the given keys.
func (t *T) RequireMetricsKeys(keys ...string) servicedef.Metrics {
	path := t.metricsFile()
	expected := append([]string(nil), keys...)
	sort.Strings(expected)

	var metrics servicedef.Metrics
	err := framework.Eventually(metricsTimeout, 0, func() error {
		if _, err := os.Stat(path); err != nil {
			return err
		}
		m, err := servicedef.ReadMetricsFile(path)
		if err != nil {
			return err
		}
		metrics = m
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, expected, metrics.Keys(), "unexpected keys in metrics file %s", path)
	return metrics
}

// RequireMetricsCounter waits until the counter key in the metrics file reaches at least min.
func (t *T) RequireMetricsCounter(key string, min uint64) {
	path := t.metricsFile()
	err := framework.Eventually(metricsTimeout, 0, func() error {
		m, err := servicedef.ReadMetricsFile(path)
		if err != nil {
			return err
		}
		value, ok := m.Counter(key)
		if !ok {
			return fmt.Errorf("metric %s is missing in %s", key, m)
		}
		if value < min {
			return fmt.Errorf("metric %s is %d, expected at least %d", key, value, min)
		}
		return nil
	})
	require.NoError(t, err)
}

func (t *T) metricsFile() string {
	t.RequireCapability(orchestration.CapabilityMetrics)
	source, ok := t.harness.Service().(orchestration.MetricsSource)
	if !ok || source.MetricsFile() == "" {
		t.SkipWithReason("service setup does not expose a metrics file")
	}
	return source.MetricsFile()
}
