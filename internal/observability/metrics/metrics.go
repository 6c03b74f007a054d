// Package metrics expone métricas Prometheus del servicio: llamadas a Coral,
// decisiones de moderación y requests HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors. Un valor por registry.
type Metrics struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer

	coralRequests  *prometheus.CounterVec
	coralDuration  *prometheus.HistogramVec
	decisions      *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpInflight   prometheus.Gauge
	rateLimitHits  prometheus.Counter
	eventsFailures prometheus.Counter
}

// New crea y registra las métricas. reg nil = registry nuevo y propio
// (evita choques entre tests). Duplicados se ignoran.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		reg:      reg,
		gatherer: reg,
		coralRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coral_api_requests_total",
			Help: "Llamadas a la API de Coral por operación y resultado",
		}, []string{"operation", "outcome"}), // outcome: ok|remote_error|transport_error|not_configured
		coralDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coral_api_request_duration_seconds",
			Help:    "Latencia de las llamadas a Coral",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Decisiones de moderación por acción y resultado",
		}, []string{"action", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provisioning_rate_limited_total",
			Help: "Intentos de aprovisionamiento rechazados por rate limit",
		}),
		eventsFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moderation_events_publish_failures_total",
			Help: "Eventos de moderación que no se pudieron publicar",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.coralRequests, m.coralDuration, m.decisions,
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.rateLimitHits, m.eventsFailures,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCall implementa coral.Observer.
func (m *Metrics) ObserveCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.coralRequests.WithLabelValues(op, outcome).Inc()
	if outcome != "not_configured" {
		m.coralDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}

// ObserveDecision cuenta una decisión de moderación (result: ok|rejected|unavailable|invalid).
func (m *Metrics) ObserveDecision(action, result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action, result).Inc()
}

// RateLimited cuenta un rechazo del limiter.
func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimitHits.Inc()
	}
}

// PublishFailed cuenta un evento que no llegó al broker.
func (m *Metrics) PublishFailed() {
	if m != nil {
		m.eventsFailures.Inc()
	}
}

// Handler devuelve el handler de /metrics para este registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RegisterPool agrega gauges del pool de Postgres (backend pgstore).
func (m *Metrics) RegisterPool(stat func() *pgxpool.Stat) error {
	if m == nil {
		return nil
	}
	return registerCollector(m.reg, newPoolCollector(stat))
}

// WithMetrics instrumenta requests HTTP. El label path es el patrón de ruta
// de chi, así /v1/admin/moderation/{action} no explota la cardinalidad.
func (m *Metrics) WithMetrics(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		m.httpInflight.Inc()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			m.httpInflight.Dec()
			path := routePattern(r)
			m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// poolCollector expone el estado del pgxpool del store de preferencias.
type poolCollector struct {
	stat         func() *pgxpool.Stat
	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(stat func() *pgxpool.Stat) *poolCollector {
	return &poolCollector{
		stat:         stat,
		acquiredDesc: prometheus.NewDesc("prefs_pgxpool_acquired", "Conexiones adquiridas del store de preferencias", nil, nil),
		idleDesc:     prometheus.NewDesc("prefs_pgxpool_idle", "Conexiones inactivas del store de preferencias", nil, nil),
		totalDesc:    prometheus.NewDesc("prefs_pgxpool_total", "Conexiones totales del store de preferencias", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stat == nil {
		return
	}
	s := c.stat()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(s.TotalConns()))
}
