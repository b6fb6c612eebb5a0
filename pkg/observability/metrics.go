package observability

import (
	"net/http"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the editor's collectors.
type Metrics struct {
	registry *prometheus.Registry

	history    *prometheus.CounterVec
	historyLen prometheus.Gauge
	rejections *prometheus.CounterVec
	entities   *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		history: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_history_operations_total",
				Help: "Total number of history operations",
			},
			[]string{"op"},
		),
		historyLen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowcanvas_history_snapshots",
				Help: "Number of snapshots kept by the history",
			},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_rejections_total",
				Help: "Total number of rejected edits",
			},
			[]string{"op", "reason"},
		),
		entities: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flowcanvas_graph_entities",
				Help: "Number of entities in the active graph",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.history, m.historyLen, m.rejections, m.entities)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HistoryPushed() { m.history.WithLabelValues("push").Inc() }
func (m *Metrics) HistoryUndone() { m.history.WithLabelValues("undo").Inc() }
func (m *Metrics) HistoryRedone() { m.history.WithLabelValues("redo").Inc() }

func (m *Metrics) HistorySize(n int) { m.historyLen.Set(float64(n)) }

// OperationFailed counts a rejected edit. It makes Metrics a domain.FailureListener.
func (m *Metrics) OperationFailed(err *domain.RejectError) {
	m.rejections.WithLabelValues(err.Op, string(err.Reason)).Inc()
}

// ObserveState records the entity counts of the active graph.
func (m *Metrics) ObserveState(s domain.GraphState) {
	m.entities.WithLabelValues("nodes").Set(float64(len(s.Nodes)))
	m.entities.WithLabelValues("connections").Set(float64(len(s.Connections)))
	m.entities.WithLabelValues("sticky_notes").Set(float64(len(s.StickyNotes)))
	m.entities.WithLabelValues("node_groups").Set(float64(len(s.NodeGroups)))
}
