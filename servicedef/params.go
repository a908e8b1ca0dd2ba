package servicedef

import (
	"sort"
	"strconv"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const envPrefix = "LAKE_"

const (
	DefaultLogLevel           = "DEBUG"
	DefaultPullPort           = 5562
	DefaultPubPort            = 5561
	DefaultMetricsRefreshRate = "1h"
	DefaultMetricsOutput      = "/tmp/reports/blackbox-tests/metrics"
)

// UnitParams is the configuration of the service. Undefined fields take the defaults of the
// test environment.
type UnitParams struct {
	LogLevel           ldvalue.OptionalString `json:"logLevel,omitempty"`
	PullPort           ldvalue.OptionalInt    `json:"pullPort,omitempty"`
	PubPort            ldvalue.OptionalInt    `json:"pubPort,omitempty"`
	MetricsRefreshRate ldvalue.OptionalString `json:"metricsRefreshRate,omitempty"`
	MetricsOutput      ldvalue.OptionalString `json:"metricsOutput,omitempty"`
	MetricsContinuous  *bool                  `json:"metricsContinuous,omitempty"`
	// Extra holds properties without a dedicated field, keyed without the LAKE_ prefix.
	Extra map[string]string `json:"extra,omitempty"`
}

// Merge returns a copy of p where every field defined in overrides replaces its counterpart.
func (p UnitParams) Merge(overrides UnitParams) UnitParams {
	ret := p
	if overrides.LogLevel.IsDefined() {
		ret.LogLevel = overrides.LogLevel
	}
	if overrides.PullPort.IsDefined() {
		ret.PullPort = overrides.PullPort
	}
	if overrides.PubPort.IsDefined() {
		ret.PubPort = overrides.PubPort
	}
	if overrides.MetricsRefreshRate.IsDefined() {
		ret.MetricsRefreshRate = overrides.MetricsRefreshRate
	}
	if overrides.MetricsOutput.IsDefined() {
		ret.MetricsOutput = overrides.MetricsOutput
	}
	if overrides.MetricsContinuous != nil {
		continuous := *overrides.MetricsContinuous
		ret.MetricsContinuous = &continuous
	}
	if len(p.Extra)+len(overrides.Extra) > 0 {
		ret.Extra = make(map[string]string, len(p.Extra)+len(overrides.Extra))
		for k, v := range p.Extra {
			ret.Extra[k] = v
		}
		for k, v := range overrides.Extra {
			ret.Extra[k] = v
		}
	}
	return ret
}

// Environment returns the variables the service reads, with defaults applied.
func (p UnitParams) Environment() map[string]string {
	continuous := true
	if p.MetricsContinuous != nil {
		continuous = *p.MetricsContinuous
	}
	env := make(map[string]string, 6+len(p.Extra))
	for k, v := range p.Extra {
		env[envPrefix+k] = v
	}
	env[envPrefix+"LOG_LEVEL"] = p.LogLevel.OrElse(DefaultLogLevel)
	env[envPrefix+"PORT_PULL"] = strconv.Itoa(p.PullPort.OrElse(DefaultPullPort))
	env[envPrefix+"PORT_PUB"] = strconv.Itoa(p.PubPort.OrElse(DefaultPubPort))
	env[envPrefix+"METRICS_REFRESHRATE"] = p.MetricsRefreshRate.OrElse(DefaultMetricsRefreshRate)
	env[envPrefix+"METRICS_OUTPUT"] = p.MetricsOutput.OrElse(DefaultMetricsOutput)
	env[envPrefix+"METRICS_CONTINUOUS"] = strconv.FormatBool(continuous)
	return env
}

// EnvironmentKeys returns the keys of Environment in sorted order.
func (p UnitParams) EnvironmentKeys() []string {
	env := p.Environment()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
