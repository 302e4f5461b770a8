package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Number of goroutines",
	})

	// Upload metrics
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "upload_bytes",
		Help:    "Size of uploaded files",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	DocumentProcessingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_processing_errors_total",
			Help: "Total number of document processing errors",
		},
		[]string{"processor", "error_type"},
	)

	// Graph metrics, describing the most recently assembled graph
	GraphNodeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_nodes_total",
			Help: "Number of nodes in the last assembled graph",
		},
		[]string{"node_type"},
	)

	GraphEdgeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_edges_total",
			Help: "Number of edges in the last assembled graph",
		},
		[]string{"predicate"},
	)
)

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}

// RecordGraph replaces the graph gauges with the given per-type counts.
func RecordGraph(nodeTypes, predicates map[string]int) {
	GraphNodeCount.Reset()
	for typ, n := range nodeTypes {
		GraphNodeCount.WithLabelValues(typ).Set(float64(n))
	}

	GraphEdgeCount.Reset()
	for pred, n := range predicates {
		GraphEdgeCount.WithLabelValues(pred).Set(float64(n))
	}
}
