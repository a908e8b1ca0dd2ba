package lakecontract

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jancajthaml-openbank/lake-contract-tests/messaging"
)

func DoMessagingTests(t *T) {
	t.Run("relays a message", func(t *T) {
		p := t.UniquePayload("echo")
		t.Send(p)
		t.RequireResponse(p)
		t.RequireNoOtherMessages()
	})

	t.Run("preserves order", func(t *T) {
		a, b, c := t.UniquePayload("a"), t.UniquePayload("b"), t.UniquePayload("c")
		t.Send(a, b, c)
		assert.Equal(t, []string{a, b, c}, t.AwaitMessages(3))
		t.RequireResponse(a, b, c)
		t.RequireNoOtherMessages()
	})

	t.Run("keeps duplicates", func(t *T) {
		p := t.UniquePayload("twice")
		t.Send(p, p)
		assert.Equal(t, []string{p, p}, t.AwaitMessages(2))
		t.RequireResponse(p)
		assert.Equal(t, []string{p}, t.MessagesInMailbox(), "acknowledging must remove only one copy")
		t.RequireResponse(p)
		t.RequireNoOtherMessages()
	})

	t.Run("acknowledging twice is harmless", func(t *T) {
		p := t.UniquePayload("ack")
		t.Send(p)
		t.RequireResponse(p)
		t.Connection().Ack(p)
		assert.False(t, t.Connection().Contains(p))
	})

	t.Run("empty payloads are not delivered", func(t *T) {
		p := t.UniquePayload("after-empty")
		t.Send("", p)
		t.RequireResponse(p)
		assert.False(t, t.Connection().Contains(""), "empty payload reached the mailbox")
	})

	t.Run("sentinel cannot be sent as a message", func(t *T) {
		err := t.Connection().Send(messaging.Sentinel)
		require.Error(t, err)
		assert.ErrorIs(t, err, messaging.ErrReservedPayload)
	})

	t.Run("sentinel never reaches the mailbox", func(t *T) {
		t.Handshake()
		t.Handshake()
		t.RequireNoOtherMessages()
	})
}
