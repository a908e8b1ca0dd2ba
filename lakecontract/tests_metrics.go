package lakecontract

import (
	"github.com/jancajthaml-openbank/lake-contract-tests/servicedef"
)

func DoMetricsTests(t *T) {
	t.Run("metrics file has expected keys", func(t *T) {
		t.RequireMetricsKeys(servicedef.MetricMessageEgress, servicedef.MetricMessageIngress)
	})

	t.Run("relayed messages are counted", func(t *T) {
		metrics := t.RequireMetricsKeys(servicedef.MetricMessageEgress, servicedef.MetricMessageIngress)
		ingress, _ := metrics.Counter(servicedef.MetricMessageIngress)
		egress, _ := metrics.Counter(servicedef.MetricMessageEgress)

		p := t.UniquePayload("counted")
		t.Send(p)
		t.RequireResponse(p)

		t.RequireMetricsCounter(servicedef.MetricMessageIngress, ingress+1)
		t.RequireMetricsCounter(servicedef.MetricMessageEgress, egress+1)
	})
}
