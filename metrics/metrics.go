// Package metrics exposes Prometheus instrumentation for association
// and DIMSE-operation outcomes. Callers register it against their own
// registry rather than the global default, so the library stays
// embeddable in a process that already runs other collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and gauges an AE/association reports
// through over its lifetime.
type Metrics struct {
	AssociationsEstablished prometheus.Counter
	AssociationsRejected    prometheus.Counter
	AssociationsAborted     prometheus.Counter
	ActiveAssociations      prometheus.Gauge

	// DIMSEOperations is keyed by command_field (hex string, e.g.
	// "0x0001") and status_class (success/pending/cancel/warning/failure).
	DIMSEOperations *prometheus.CounterVec
}

// New builds a Metrics and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AssociationsEstablished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dcmnet",
			Subsystem: "ul",
			Name:      "associations_established_total",
			Help:      "Associations successfully established, as requestor or acceptor.",
		}),
		AssociationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dcmnet",
			Subsystem: "ul",
			Name:      "associations_rejected_total",
			Help:      "Association requests rejected by the peer or locally.",
		}),
		AssociationsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dcmnet",
			Subsystem: "ul",
			Name:      "associations_aborted_total",
			Help:      "Associations that ended in abort rather than orderly release.",
		}),
		ActiveAssociations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dcmnet",
			Subsystem: "ul",
			Name:      "active_associations",
			Help:      "Associations currently established.",
		}),
		DIMSEOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcmnet",
			Subsystem: "ul",
			Name:      "dimse_operations_total",
			Help:      "DIMSE operations by command field and response status class.",
		}, []string{"command_field", "status_class"}),
	}
	reg.MustRegister(
		m.AssociationsEstablished,
		m.AssociationsRejected,
		m.AssociationsAborted,
		m.ActiveAssociations,
		m.DIMSEOperations,
	)
	return m
}

// StatusClass buckets a DIMSE status code into the label value
// DIMSEOperations is keyed by, per P3.7 C.
func StatusClass(status uint16) string {
	switch {
	case status == 0:
		return "success"
	case status == 0xFE00:
		return "cancel"
	case status == 0xFF00 || status == 0xFF01:
		return "pending"
	case status&0xF000 == 0xB000 || status == 0x0107 || status == 0x0116 || status == 0xA701 || status == 0xA702:
		return "warning"
	default:
		return "failure"
	}
}
