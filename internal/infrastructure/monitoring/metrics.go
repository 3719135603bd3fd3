package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// PTY session metrics
	PTYCreateAttempts *prometheus.CounterVec
	PTYSessionsActive prometheus.Gauge
	PTYReconnects     prometheus.Counter
	PTYRestarts       prometheus.Counter
	PTYWriteErrors    prometheus.Counter
	PTYResizeErrors   prometheus.Counter
	PTYBytesOut       prometheus.Counter

	// Output buffer metrics
	BufferFlushes   prometheus.Counter
	BufferFlushSize prometheus.Histogram

	// Pane layout metrics
	PaneSplits   *prometheus.CounterVec
	PaneCloses   *prometheus.CounterVec
	PanesActive  prometheus.Gauge
	TabsActive   prometheus.Gauge
	LayoutFrozen prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMetrics creates a metrics collector registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		stop:      make(chan struct{}),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuterm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menuterm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		PTYCreateAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuterm_pty_create_attempts_total",
				Help: "PTY session create attempts by result",
			},
			[]string{"result"},
		),
		PTYSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuterm_pty_sessions_active",
				Help: "Number of panes holding a live PTY session",
			},
		),
		PTYReconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "menuterm_pty_reconnects_total",
				Help: "Reconnects triggered by write failures",
			},
		),
		PTYRestarts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "menuterm_pty_restarts_total",
				Help: "Automatic restarts after shell exit",
			},
		),
		PTYWriteErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "menuterm_pty_write_errors_total",
				Help: "Failed writes to PTY sessions",
			},
		),
		PTYResizeErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "menuterm_pty_resize_errors_total",
				Help: "Failed PTY resizes",
			},
		),
		PTYBytesOut: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "menuterm_pty_output_bytes_total",
				Help: "Bytes of PTY output delivered to renderers",
			},
		),

		BufferFlushes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "menuterm_buffer_flushes_total",
				Help: "Coalesced output flushes",
			},
		),
		BufferFlushSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "menuterm_buffer_flush_chunks",
				Help:    "Chunks coalesced per flush",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
			},
		),

		PaneSplits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuterm_pane_splits_total",
				Help: "Pane splits by direction",
			},
			[]string{"direction"},
		),
		PaneCloses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuterm_pane_closes_total",
				Help: "Pane close requests by result",
			},
			[]string{"result"},
		),
		PanesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuterm_panes",
				Help: "Number of panes across all tabs",
			},
		),
		TabsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuterm_tabs",
				Help: "Number of initialized tabs",
			},
		),
		LayoutFrozen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuterm_layout_frozen_panes",
				Help: "Panes currently holding back resize during a structural change",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuterm_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menuterm_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "menuterm_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// Close stops the uptime updater
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// The recorders below are nil-safe so domain packages can run without metrics.

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCreateAttempt records a PTY create attempt; result is "success" or "failure"
func (m *Metrics) RecordCreateAttempt(result string) {
	if m == nil {
		return
	}
	m.PTYCreateAttempts.WithLabelValues(result).Inc()
}

// SessionUp marks one more pane as holding a live session
func (m *Metrics) SessionUp() {
	if m == nil {
		return
	}
	m.PTYSessionsActive.Inc()
}

// SessionDown marks one pane as having lost its session
func (m *Metrics) SessionDown() {
	if m == nil {
		return
	}
	m.PTYSessionsActive.Dec()
}

// IncReconnects increments the reconnect counter
func (m *Metrics) IncReconnects() {
	if m == nil {
		return
	}
	m.PTYReconnects.Inc()
}

// IncRestarts increments the restart counter
func (m *Metrics) IncRestarts() {
	if m == nil {
		return
	}
	m.PTYRestarts.Inc()
}

// IncWriteErrors increments the write error counter
func (m *Metrics) IncWriteErrors() {
	if m == nil {
		return
	}
	m.PTYWriteErrors.Inc()
}

// IncResizeErrors increments the resize error counter
func (m *Metrics) IncResizeErrors() {
	if m == nil {
		return
	}
	m.PTYResizeErrors.Inc()
}

// RecordFlush records one coalesced flush of chunks totalling size bytes
func (m *Metrics) RecordFlush(chunks, size int) {
	if m == nil {
		return
	}
	m.BufferFlushes.Inc()
	m.BufferFlushSize.Observe(float64(chunks))
	m.PTYBytesOut.Add(float64(size))
}

// RecordSplit records a pane split
func (m *Metrics) RecordSplit(direction string) {
	if m == nil {
		return
	}
	m.PaneSplits.WithLabelValues(direction).Inc()
}

// RecordClose records a pane close; result is "closed", "last_pane" or "not_found"
func (m *Metrics) RecordClose(result string) {
	if m == nil {
		return
	}
	m.PaneCloses.WithLabelValues(result).Inc()
}

// SetLayout sets the tab and pane gauges
func (m *Metrics) SetLayout(tabs, panes int) {
	if m == nil {
		return
	}
	m.TabsActive.Set(float64(tabs))
	m.PanesActive.Set(float64(panes))
}

// AddFrozen adjusts the frozen pane gauge by delta
func (m *Metrics) AddFrozen(delta int) {
	if m == nil {
		return
	}
	m.LayoutFrozen.Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
