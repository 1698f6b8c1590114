package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeOK labels successful operations; failures are labelled with their kind.
const OutcomeOK = "ok"

// Metrics holds the Prometheus collectors for facade operations.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	UsersCreated      *prometheus.CounterVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authbridge_operations_total",
			Help: "Total number of provider operations by outcome",
		}, []string{"provider", "operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authbridge_operation_duration_seconds",
			Help:    "Duration of provider operations, including the backing service round trip",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider", "operation"}),
		UsersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authbridge_users_created_total",
			Help: "Total number of accounts registered through the facade",
		}, []string{"provider"}),
	}
}

// ObserveOperation records one operation. Call with time.Now() taken at the start.
func (m *Metrics) ObserveOperation(provider, operation, outcome string, start time.Time) {
	m.Operations.WithLabelValues(provider, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated(provider string) {
	m.UsersCreated.WithLabelValues(provider).Inc()
}
