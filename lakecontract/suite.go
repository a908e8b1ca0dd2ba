package lakecontract

import (
	"github.com/jancajthaml-openbank/lake-contract-tests/framework"
)

// RunTestSuite runs every contract test against the service of a harness that was Setup.
func RunTestSuite(
	harness *Harness,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newT(c, harness)

		t.Run("messaging", DoMessagingTests)
		t.Run("handshake", DoHandshakeTests)
		t.Run("orchestration", DoOrchestrationTests)
		t.Run("logs", DoLogTests)
		t.Run("metrics", DoMetricsTests)
	})
}
