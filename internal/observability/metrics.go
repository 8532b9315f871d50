package observability

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonathan/medcontent/internal/compliance"
)

// Metrics groups the service's prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	stagesTotal       *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	complianceMatches *prometheus.CounterVec
	notifyFailures    prometheus.Counter
	subscribers       prometheus.Gauge

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medcontent_pipeline_stages_total",
			Help: "Pipeline stages entered.",
		}, []string{"operation", "stage"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medcontent_pipeline_runs_total",
			Help: "Finished pipeline runs by outcome.",
		}, []string{"operation", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medcontent_pipeline_run_duration_seconds",
			Help:    "Pipeline run latency in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		complianceMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medcontent_compliance_matches_total",
			Help: "Compliance rule matches by category and classification.",
		}, []string{"category", "classification"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medcontent_notify_send_failures_total",
			Help: "Progress events that could not be delivered to a subscriber.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medcontent_notify_subscribers",
			Help: "Live progress subscribers.",
		}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.stagesTotal, m.runsTotal, m.runDuration, m.complianceMatches,
			m.notifyFailures, m.subscribers,
			m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		)
	}
	return m
}

// StageEntered counts a pipeline stage transition.
func (m *Metrics) StageEntered(operation, stage string) {
	if m == nil {
		return
	}
	m.stagesTotal.WithLabelValues(operation, stage).Inc()
}

// RunFinished records the outcome ("success" or "failure") and latency of a pipeline run.
func (m *Metrics) RunFinished(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(operation, outcome).Inc()
	m.runDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveReport counts the matches of a compliance report.
func (m *Metrics) ObserveReport(r compliance.Report) {
	if m == nil {
		return
	}
	for _, v := range r.Violations {
		m.complianceMatches.WithLabelValues(string(v.Category), "violation").Inc()
	}
	for _, w := range r.Warnings {
		m.complianceMatches.WithLabelValues(string(w.Category), "warning").Inc()
	}
	for _, s := range r.Skipped {
		m.complianceMatches.WithLabelValues(string(s.Category), "skipped").Inc()
	}
}

// NotifyFailed counts an undeliverable progress event.
func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}

// SetSubscribers reports the current number of live subscribers.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// Instrument wraps next with request count, latency and in-flight metrics.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := CanonicalPath(r.URL.Path)
		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// CanonicalPath replaces UUID path segments with ":id" to keep label cardinality bounded.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if _, err := uuid.Parse(seg); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE keeps working behind the middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the underlying writer for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("observability: response writer does not support hijacking")
	}
	w.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
