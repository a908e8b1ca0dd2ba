package messaging

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxKeepsReceiveOrderAndDuplicates(t *testing.T) {
	m := NewMailbox()
	m.append("a")
	m.append("b")
	m.append("a")
	assert.Equal(t, []string{"a", "b", "a"}, m.Snapshot())
	assert.Equal(t, 3, m.Len())
}

func TestMailboxAckRemovesOnlyFirstMatch(t *testing.T) {
	m := NewMailbox()
	m.append("a")
	m.append("b")
	m.append("a")

	assert.True(t, m.Ack("a"))
	assert.Equal(t, []string{"b", "a"}, m.Snapshot())
	assert.True(t, m.Contains("a"))
}

func TestMailboxAckIsIdempotent(t *testing.T) {
	m := NewMailbox()
	m.append("pong")

	assert.True(t, m.Ack("pong"))
	assert.False(t, m.Ack("pong"))
	assert.False(t, m.Contains("pong"))
	assert.Empty(t, m.Snapshot())
}

func TestMailboxSnapshotIsACopy(t *testing.T) {
	m := NewMailbox()
	m.append("a")
	snapshot := m.Snapshot()
	snapshot[0] = "changed"
	m.append("b")

	assert.Equal(t, []string{"a", "b"}, m.Snapshot())
	assert.Len(t, snapshot, 1)
}

func TestMailboxConcurrentAccess(t *testing.T) {
	m := NewMailbox()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.append(fmt.Sprintf("msg-%d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = m.Snapshot()
			_ = m.Contains("msg-10")
			m.Ack(fmt.Sprintf("msg-%d", i))
		}
	}()
	wg.Wait()

	snapshot := m.Snapshot()
	require.LessOrEqual(t, len(snapshot), 1000)
	for i := 1; i < len(snapshot); i++ {
		var prev, cur int
		_, _ = fmt.Sscanf(snapshot[i-1], "msg-%d", &prev)
		_, _ = fmt.Sscanf(snapshot[i], "msg-%d", &cur)
		assert.Less(t, prev, cur, "mailbox lost receive order")
	}
}
