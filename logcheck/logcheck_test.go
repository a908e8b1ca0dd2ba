package logcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const journal = `
Jan 01 10:00:00.000 host lake[1]: Started openbank lake message relay.
Jan 01 10:00:01.000 host lake[1]: old run
Jan 01 10:05:00.000 host lake[2]: Started openbank lake message relay.
  Jan 01 10:05:00.100 host lake[2]: Relay bound
Jan 01 10:05:00.200 host lake[2]: Relay ready


`

func TestLinesSinceLastMarker(t *testing.T) {
	lines := LinesSince(journal, "Started openbank lake message relay.")
	assert.Equal(t, []string{
		"Jan 01 10:05:00.200 host lake[2]: Relay ready",
		"Jan 01 10:05:00.100 host lake[2]: Relay bound",
	}, lines)
}

func TestLinesSinceWithoutMarker(t *testing.T) {
	assert.Len(t, LinesSince(journal, "never logged"), 5)
	assert.Len(t, LinesSince(journal, ""), 5)
	assert.Empty(t, LinesSince("\n\n", "x"))
}

func TestMissing(t *testing.T) {
	lines := LinesSince(journal, "Started openbank lake message relay.")
	assert.Empty(t, Missing(lines, []string{"Relay bound", " Relay ready ", ""}))
	assert.Equal(t, []string{"old run", "Stopping"}, Missing(lines, []string{"old run", "Relay bound", "Stopping"}))
}
