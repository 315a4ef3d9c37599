package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	LinesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netxlog_lines_total",
			Help: "Total raw lines read per source",
		},
		[]string{"source"},
	)
	LinesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netxlog_lines_dropped_total",
			Help: "Raw lines that produced no event, by source and reason",
		},
		[]string{"source", "reason"},
	)
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netxlog_events_emitted_total",
			Help: "Structured events handed to the sinks, by source",
		},
		[]string{"source"},
	)

	// Queue metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netxlog_queue_depth",
			Help: "Lines waiting in the event bus",
		},
	)

	// Sink metrics
	SinkDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netxlog_sink_dropped_total",
			Help: "Events a sink did not accept in time or failed to write",
		},
		[]string{"sink"},
	)

	// Process metrics
	ActiveSources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netxlog_active_sources",
			Help: "Number of sources currently being read",
		},
	)
)

var (
	// Event content metrics, fed by the metrics sink
	EventsByKind = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netxlog_events_total",
			Help: "Events observed by the metrics sink, by source and kind",
		},
		[]string{"source", "kind"},
	)
	FsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netxlog_fs_duration_seconds",
			Help:    "Duration of filesystem calls reported by fs_usage",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
		},
		[]string{"event_type"},
	)
	NetBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netxlog_net_bytes_total",
			Help: "Captured packet bytes by IP protocol",
		},
		[]string{"proto"},
	)
)
