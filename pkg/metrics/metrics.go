// Package metrics registro Prometheus propio del servicio: métricas del motor de
// contabilización, de las tareas en segundo plano y de las peticiones HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics colectores del servicio sobre un registry privado.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	posted          *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	retries         prometheus.Counter
	postDuration    *prometheus.HistogramVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New inicializa el registry con las métricas del proceso y del runtime de Go.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		posted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_posted_total",
			Help: "Transacciones contabilizadas por tipo.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_rejected_total",
			Help: "Transacciones rechazadas por tipo de error.",
		}, []string{"kind"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_concurrency_retries_total",
			Help: "Reintentos por conflicto de concurrencia.",
		}),
		postDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_post_duration_seconds",
			Help:    "Duración de la contabilización por tipo.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_job_runs_total",
			Help: "Ejecuciones de tareas en segundo plano por resultado.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_job_duration_seconds",
			Help:    "Duración de las tareas en segundo plano.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Peticiones HTTP por ruta, método y código.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP por ruta.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.posted, m.rejected, m.retries, m.postDuration,
		m.jobRuns, m.jobDuration,
		m.requestsTotal, m.requestDuration,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// ObservePosted implementa ledger.Observer.
func (m *Metrics) ObservePosted(txType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.posted.WithLabelValues(txType).Inc()
	m.postDuration.WithLabelValues(txType).Observe(elapsed.Seconds())
}

// ObserveRejected implementa ledger.Observer.
func (m *Metrics) ObserveRejected(kind string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(kind).Inc()
}

// ObserveRetry implementa ledger.Observer.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// ObserveJob implementa jobs.Observer.
func (m *Metrics) ObserveJob(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// Registry expone el registry para métricas adicionales y tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler handler Fiber del endpoint de métricas.
func (m *Metrics) Handler() fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusServiceUnavailable) }
	}
	return adaptor.HTTPHandler(m.handler)
}

// Middleware registra cada petición con el patrón de ruta (no la URL concreta).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		code := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			} else {
				code = fiber.StatusInternalServerError
			}
		}
		route := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		m.requestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(code)).Inc()
		m.requestDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}
