// Package metrics declares the Prometheus collectors for the graph index.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// File error stages.
const (
	StageRead  = "read"
	StageStat  = "stat"
	StagePanic = "panic"
)

var (
	// WatcherBatches counts debounced batches processed by the watcher.
	WatcherBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meshgraph_watcher_batches_total",
		Help: "Debounced watcher batches processed",
	})

	// WatcherBatchDuration tracks time spent applying one batch to the graph.
	WatcherBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meshgraph_watcher_batch_duration_seconds",
		Help:    "Watcher batch processing duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	// FileErrors counts per-file failures that were skipped.
	FileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshgraph_file_errors_total",
		Help: "Per-file failures skipped during build or watch, by stage",
	}, []string{"stage"})

	// EventsEmitted counts graph events pushed to the queue, by type.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meshgraph_events_emitted_total",
		Help: "Graph events emitted by type",
	}, []string{"type"})

	RebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meshgraph_rebuild_duration_seconds",
		Help:    "Full graph rebuild duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	Pages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meshgraph_pages",
		Help: "Pages currently in the graph, stubs included",
	})

	Links = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meshgraph_links",
		Help: "Links currently in the graph",
	})
)

// ObserveGraph records the current graph size.
func ObserveGraph(pages, links int) {
	Pages.Set(float64(pages))
	Links.Set(float64(links))
}
