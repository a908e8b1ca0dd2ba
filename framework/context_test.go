package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	started  []string
	skipped  []string
	finished map[string]bool
	errors   []string
}

func newRecordingTestLogger() *recordingTestLogger {
	return &recordingTestLogger{finished: make(map[string]bool)}
}

func (r *recordingTestLogger) TestStarted(id TestID) { r.started = append(r.started, id.String()) }
func (r *recordingTestLogger) TestError(id TestID, err error) {
	r.errors = append(r.errors, err.Error())
}
func (r *recordingTestLogger) TestFinished(id TestID, failed bool, _ CapturedOutput) {
	r.finished[id.String()] = failed
}
func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	r.skipped = append(r.skipped, id.String()+": "+reason)
}

func TestRunRecordsPassesAndFailures(t *testing.T) {
	logger := newRecordingTestLogger()
	results := Run(nil, logger, func(c *Context) {
		c.Run("suite", func(c *Context) {
			c.Run("passes", func(c *Context) {})
			c.Run("fails", func(c *Context) {
				c.Errorf("bad value %d", 3)
				c.FailNow()
			})
		})
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "suite/fails", results.Failures[0].TestID.String())
	assert.Equal(t, []string{"bad value 3"}, logger.errors)
	assert.Equal(t, []string{"suite", "suite/passes", "suite/fails"}, logger.started)
	assert.False(t, logger.finished["suite/passes"])
	assert.True(t, logger.finished["suite/fails"])
}

func TestRunAppliesFilter(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^a/skip"))
	logger := newRecordingTestLogger()
	ran := false
	Run(filters.AsFilter, logger, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.Run("skipme", func(c *Context) { ran = true })
			c.Run("keep", func(c *Context) {})
		})
	})
	assert.False(t, ran)
	assert.Equal(t, []string{"a/skipme: excluded by filter parameters"}, logger.skipped)
}

func TestSkipWithReason(t *testing.T) {
	logger := newRecordingTestLogger()
	results := Run(nil, logger, func(c *Context) {
		c.Run("x", func(c *Context) {
			c.SkipWithReason("no restart support")
			c.Errorf("unreachable")
		})
	})
	assert.True(t, results.OK())
	require.Len(t, results.Tests, 2)
	assert.True(t, results.Tests[0].Skipped)
	assert.Equal(t, []string{"x: no restart support"}, logger.skipped)
}

func TestUnexpectedPanicIsAFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("panics", func(c *Context) { panic("oops") })
	})
	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic in test: oops")
}

func TestFailNowWithoutMessage(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("silent", func(c *Context) { c.FailNow() })
	})
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "test failed with no failure message", results.Failures[0].Errors[0].Error())
}

func TestDeferRunsInReverseOrder(t *testing.T) {
	var order []string
	Run(nil, nil, func(c *Context) {
		c.Run("pass", func(c *Context) {
			c.Defer(func() { order = append(order, "first") })
			c.Defer(func() { order = append(order, "second") })
		})
		c.Run("fail", func(c *Context) {
			c.Defer(func() { order = append(order, "fail-cleanup") })
			c.FailNow()
		})
		c.Run("skip", func(c *Context) {
			c.Defer(func() { order = append(order, "skip-cleanup") })
			c.Skip()
		})
	})
	assert.Equal(t, []string{"second", "first", "fail-cleanup", "skip-cleanup"}, order)
}

func TestDebugOutputIsCaptured(t *testing.T) {
	var captured CapturedOutput
	Run(nil, nil, func(c *Context) {
		c.Run("debug", func(c *Context) {
			c.Debug("hello %s", "there")
			_, _ = c.DebugWriter().Write([]byte("line one\nline two\n"))
			captured = c.DebugWriter().Output()
		})
	})
	require.Len(t, captured, 3)
	assert.Equal(t, "hello there", captured[0].Message)
	assert.Equal(t, "line one", captured[1].Message)
	assert.Equal(t, "line two", captured[2].Message)
}

func TestReformatErrorStripsTestifyIndentation(t *testing.T) {
	err := reformatError(errors.New("\n\tError Trace:\tfoo.go:1\n\tError:\tnot equal"))
	assert.Equal(t, "Error Trace:\tfoo.go:1\nError:\tnot equal", err.Error())
}
