package offline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts intercepted fetches and lifecycle outcomes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	fetches   *prometheus.CounterVec
	lifecycle *prometheus.CounterVec
}

// NewMetrics creates the offline counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundrypos",
			Subsystem: "offline",
			Name:      "fetch_total",
			Help:      "Intercepted requests by the source that answered them.",
		}, []string{"source", "outcome"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laundrypos",
			Subsystem: "offline",
			Name:      "lifecycle_total",
			Help:      "Worker lifecycle events by outcome.",
		}, []string{"event", "outcome"}),
	}
	if reg != nil {
		if err := reg.Register(m.fetches); err != nil {
			return nil, err
		}
		if err := reg.Register(m.lifecycle); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeFetch(src Source, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(string(src), outcome(err)).Inc()
}

func (m *Metrics) observeLifecycle(kind EventKind, err error) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(kind.String(), outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
