package messaging

import "sync"

// Mailbox is the ordered list of received messages that have not been acknowledged yet.
// Duplicates are kept, since the service may legitimately emit the same payload twice.
type Mailbox struct {
	items []string
	lock  sync.Mutex
}

// NewMailbox returns an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) append(payload string) {
	m.lock.Lock()
	m.items = append(m.items, payload)
	m.lock.Unlock()
}

// Snapshot returns a copy of the current contents in receive order.
func (m *Mailbox) Snapshot() []string {
	m.lock.Lock()
	ret := append([]string(nil), m.items...)
	m.lock.Unlock()
	return ret
}

// Contains reports whether any message equals value.
func (m *Mailbox) Contains(value string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, item := range m.items {
		if item == value {
			return true
		}
	}
	return false
}

// Ack removes the first message equal to value. It reports whether anything was removed;
// acknowledging an absent value is not an error.
func (m *Mailbox) Ack(value string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	for i, item := range m.items {
		if item == value {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of unacknowledged messages.
func (m *Mailbox) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.items)
}
