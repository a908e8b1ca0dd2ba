package servicedef

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	MetricMessageIngress = "messageIngress"
	MetricMessageEgress  = "messageEgress"
)

// Metrics is the decoded content of the service metrics file.
type Metrics struct {
	values ldvalue.Value
}

// ParseMetrics decodes a metrics document, which must be a JSON object.
func ParseMetrics(data []byte) (Metrics, error) {
	value := ldvalue.Parse(data)
	if value.Type() != ldvalue.ObjectType {
		return Metrics{}, fmt.Errorf("metrics must be a JSON object, got %s", value.Type())
	}
	return Metrics{values: value}, nil
}

// ReadMetricsFile reads and decodes the metrics file at path.
func ReadMetricsFile(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metrics{}, err
	}
	m, err := ParseMetrics(data)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Keys returns the metric names in sorted order.
func (m Metrics) Keys() []string {
	keys := m.values.Keys()
	sort.Strings(keys)
	return keys
}

// Counter returns a numeric metric. ok is false if the key is absent or not a number.
func (m Metrics) Counter(key string) (value uint64, ok bool) {
	v := m.values.GetByKey(key)
	if !v.IsNumber() || v.Float64Value() < 0 {
		return 0, false
	}
	return uint64(v.Float64Value()), true
}

func (m Metrics) String() string {
	return m.values.JSONString()
}
