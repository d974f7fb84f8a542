package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	Operations          *prometheus.CounterVec
	EquipmentRegistered prometheus.Counter
	NotificationsSent   *prometheus.CounterVec
}

// New creates the registry metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "equipment_registry_operations_total",
			Help: "Total number of registry operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		EquipmentRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "equipment_registry_registered_total",
			Help: "Total number of equipment items registered",
		}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "equipment_registry_push_notifications_total",
			Help: "Total number of push notifications attempted by result",
		}, []string{"result"}),
	}
}

// ObserveOperation counts one registry operation outcome.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	if operation == "register" && outcome == "ok" {
		m.EquipmentRegistered.Inc()
	}
}

// IncrementNotifications counts one push delivery attempt.
func (m *Metrics) IncrementNotifications(result string) {
	m.NotificationsSent.WithLabelValues(result).Inc()
}
