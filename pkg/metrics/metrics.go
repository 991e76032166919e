// Package metrics exposes frame loop statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/df07/go-atmosphere/pkg/renderer"
)

// Collector records per-frame statistics
type Collector struct {
	frameDuration  prometheus.Histogram
	framesTotal    *prometheus.CounterVec
	trianglesTotal *prometheus.CounterVec
	drawsTotal     *prometheus.CounterVec
	fragmentsTotal prometheus.Counter
	editsTotal     *prometheus.CounterVec
}

// NewCollector creates the frame metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Collector{
		frameDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "atmosphere_frame_duration_seconds",
				Help:    "Time spent rasterizing a frame",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atmosphere_frames_total",
				Help: "Total number of frames rendered",
			},
			[]string{"status"},
		),
		trianglesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atmosphere_triangles_total",
				Help: "Triangles submitted, by what happened to them",
			},
			[]string{"outcome"},
		),
		drawsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atmosphere_draw_calls_total",
				Help: "Draw calls issued, by shading technique",
			},
			[]string{"technique"},
		),
		fragmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atmosphere_fragments_total",
				Help: "Fragments that passed the depth test",
			},
		),
		editsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atmosphere_parameter_edits_total",
				Help: "Parameter edits received from the UI",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.frameDuration, m.framesTotal, m.trianglesTotal, m.drawsTotal, m.fragmentsTotal, m.editsTotal)
	return m
}

// RecordFrame records a finished frame. Statistics of a failed frame are
// still counted; only the status label differs.
func (m *Collector) RecordFrame(stats renderer.FrameStats, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.framesTotal.WithLabelValues(status).Inc()
	m.frameDuration.Observe(stats.Duration.Seconds())

	drawn := max(0, stats.Triangles-stats.Culled-stats.Clipped)
	m.trianglesTotal.WithLabelValues("drawn").Add(float64(drawn))
	m.trianglesTotal.WithLabelValues("culled").Add(float64(stats.Culled))
	m.trianglesTotal.WithLabelValues("clipped").Add(float64(stats.Clipped))
	m.fragmentsTotal.Add(float64(stats.Fragments))
}

// RecordDraw counts one draw call issued with technique
func (m *Collector) RecordDraw(technique string) {
	m.drawsTotal.WithLabelValues(technique).Inc()
}

// RecordEdit counts a UI parameter edit
func (m *Collector) RecordEdit(applied bool) {
	result := "applied"
	if !applied {
		result = "rejected"
	}
	m.editsTotal.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
