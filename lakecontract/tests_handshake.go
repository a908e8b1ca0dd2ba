package lakecontract

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

func DoHandshakeTests(t *T) {
	t.Run("can be repeated", func(t *T) {
		for i := 0; i < 3; i++ {
			t.Handshake()
		}
	})

	t.Run("connection stays usable afterwards", func(t *T) {
		t.Handshake()
		p := t.UniquePayload("post-handshake")
		t.Send(p)
		t.RequireResponse(p)
	})

	t.Run("succeeds after service restart", func(t *T) {
		p := t.UniquePayload("before-restart")
		t.Send(p)
		t.RequireResponse(p)

		t.RestartService()
		assert.True(t, t.Connection().Ready())
		t.Handshake()

		q := t.UniquePayload("after-restart")
		t.Send(q)
		t.RequireResponse(q)
		t.RequireNoOtherMessages()
	})

	t.Run("succeeds after reconfiguration", func(t *T) {
		level := strings.ToUpper(t.Harness().Config().Service.LogLevel)
		if level == "" {
			level = servicedef.DefaultLogLevel
		}
		t.ReconfigureService(servicedef.UnitParams{LogLevel: ldvalue.NewOptionalString(level)})
		assert.True(t, t.Connection().Ready())
		t.Handshake()

		p := t.UniquePayload("after-reconfiguration")
		t.Send(p)
		t.RequireResponse(p)
		t.RequireNoOtherMessages()
	})
}
