package notification

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK          = "ok"
	resultEncodeError = "encode_error"
	resultBrokerError = "broker_error"
	resultDecodeError = "decode_error"
	resultNotifyError = "notify_error"
)

// Metrics counts publish and consume outcomes. A nil *Metrics records nothing.
type Metrics struct {
	published *prometheus.CounterVec
	consumed  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_notifications_published_total",
				Help: "Notification events handed to the broker, by outcome.",
			},
			[]string{"event_type", "result"},
		),
		consumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_notifications_consumed_total",
				Help: "Notification messages processed by the worker, by outcome.",
			},
			[]string{"event_type", "result"},
		),
	}

	if err := reg.Register(m.published); err != nil {
		return nil, err
	}
	if err := reg.Register(m.consumed); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) incPublished(t EventType, result string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(string(t), result).Inc()
}

func (m *Metrics) incConsumed(t EventType, result string) {
	if m == nil {
		return
	}
	if t == "" {
		t = "UNKNOWN"
	}
	m.consumed.WithLabelValues(string(t), result).Inc()
}
