package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set bundles the prometheus collectors the session layer reports into.
type Set struct {
	RefreshTotal     *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	SnapshotFeatures prometheus.Gauge
	ModeTransitions  *prometheus.CounterVec
	UploadsTotal     *prometheus.CounterVec
}

// New registers the session collectors on the given registerer.
func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gis_sync_refresh_total",
			Help: "Snapshot refreshes by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gis_sync_refresh_duration_seconds",
			Help:    "Latency of snapshot refreshes.",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotFeatures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gis_snapshot_features",
			Help: "Features in the current local snapshot.",
		}),
		ModeTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gis_mode_transitions_total",
			Help: "Interaction mode transitions by target mode.",
		}, []string{"mode"}),
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gis_attachment_uploads_total",
			Help: "Attachment uploads by outcome.",
		}, []string{"outcome"}),
	}
}
