package messaging

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts harness-side messaging activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	received     prometheus.Counter
	acknowledged prometheus.Counter
	dropped      prometheus.Counter
	handshakes   prometheus.Counter
	reconnects   prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg, if reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbtest",
			Subsystem: "messaging",
			Name:      "received_total",
			Help:      "Messages appended to the mailbox.",
		}),
		acknowledged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbtest",
			Subsystem: "messaging",
			Name:      "acknowledged_total",
			Help:      "Messages removed from the mailbox by an acknowledgement.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbtest",
			Subsystem: "messaging",
			Name:      "dropped_sends_total",
			Help:      "Sends discarded because the connection was not started or was reconnecting.",
		}),
		handshakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbtest",
			Subsystem: "messaging",
			Name:      "handshakes_total",
			Help:      "Handshakes confirmed by the service.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bbtest",
			Subsystem: "messaging",
			Name:      "reconnects_total",
			Help:      "Links re-established after the service went away.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.received, m.acknowledged, m.dropped, m.handshakes, m.reconnects} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) messageReceived() {
	if m != nil {
		m.received.Inc()
	}
}

func (m *Metrics) messageAcknowledged() {
	if m != nil {
		m.acknowledged.Inc()
	}
}

func (m *Metrics) sendDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) handshakeConfirmed() {
	if m != nil {
		m.handshakes.Inc()
	}
}

func (m *Metrics) reconnected() {
	if m != nil {
		m.reconnects.Inc()
	}
}
