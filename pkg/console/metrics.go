package console

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "verifychain_console"

// Metrics records operation outcomes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	mintedTokens prometheus.Counter
	tokenReads   *prometheus.CounterVec
}

// NewMetrics creates the console collectors and registers them with
// registerer. A nil registerer leaves them unregistered.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Console operations by final outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Time from validation to the terminal phase.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"operation"}),
		mintedTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "minted_tokens_total",
			Help:      "Token ids recovered from confirmed issue receipts.",
		}),
		tokenReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_reads_total",
			Help:      "Paired ownerOf/tokenURI reads by result.",
		}, []string{"result"}),
	}

	if registerer == nil {
		return metrics, nil
	}
	for _, collector := range []prometheus.Collector{
		metrics.operations,
		metrics.duration,
		metrics.mintedTokens,
		metrics.tokenReads,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func (m *Metrics) observeOperation(operation Operation, outcome Phase, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(operation), string(outcome)).Inc()
	m.duration.WithLabelValues(string(operation)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeMinted(count int) {
	if m == nil || count == 0 {
		return
	}
	m.mintedTokens.Add(float64(count))
}

func (m *Metrics) observeRead(found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "missing"
	}
	m.tokenReads.WithLabelValues(result).Inc()
}
