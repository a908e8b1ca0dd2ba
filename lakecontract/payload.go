package lakecontract

import (
	"github.com/google/uuid"
)

// UniquePayload returns a message no other test sends. The mailbox is shared by all tests,
// so each test matches only its own messages.
func UniquePayload(prefix string) string {
	return prefix + " " + uuid.NewString()
}
