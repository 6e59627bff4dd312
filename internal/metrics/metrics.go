// Package metrics exposes game and server counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomz197/galaxyblaster/internal/loop"
)

// Metrics owns a private registry. Labels are bounded: cue names and a fixed
// set of rejection reasons, never user names.
type Metrics struct {
	reg *prometheus.Registry

	tickDuration  prometheus.Histogram
	cues          *prometheus.CounterVec
	sessions      prometheus.Gauge
	rejected      *prometheus.CounterVec
	wsConnections prometheus.Gauge
}

// New creates the collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "galaxyblaster_frame_duration_seconds",
			Help:    "Time spent simulating and rendering one frame",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033},
		}),
		cues: f.NewCounterVec(prometheus.CounterOpts{
			Name: "galaxyblaster_cues_total",
			Help: "Sound cues emitted by games, by cue",
		}, []string{"cue"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "galaxyblaster_sessions_active",
			Help: "Games currently being played",
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "galaxyblaster_connections_rejected_total",
			Help: "Connections refused, by reason",
		}, []string{"reason"}),
		wsConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "galaxyblaster_websocket_connections_active",
			Help: "Open HUD websocket connections",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveFrame records the work time of one frame.
func (m *Metrics) ObserveFrame(d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
}

// SetSessions updates the active session gauge.
func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

// RejectConnection counts a refused connection.
// reason must be one of: "rate_limit", "capacity", "ws_limit".
func (m *Metrics) RejectConnection(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// SetWSConnections updates the websocket gauge.
func (m *Metrics) SetWSConnections(n int) {
	m.wsConnections.Set(float64(n))
}

// Cues wraps next so every cue is counted before it is played.
// A nil next only counts.
func (m *Metrics) Cues(next loop.CuePlayer) loop.CuePlayer {
	return loop.CueFunc(func(c loop.Cue) {
		m.cues.WithLabelValues(c.String()).Inc()
		if next != nil {
			next.Play(c)
		}
	})
}
