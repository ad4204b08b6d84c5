// Package metrics agrupa las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contiene los collectors registrados. Un nil *Metrics es válido:
// todos los Record* son no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	authEventsTotal *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec

	tenantUnitTotal    *prometheus.CounterVec
	tenantUnitDuration *prometheus.HistogramVec
}

// Config agrupa dependencias necesarias para exponer /metrics.
type Config struct {
	// Registry donde se registran los collectors. nil = registry nuevo.
	Registry *prometheus.Registry
	// Pool, si no es nil, agrega gauges del pgxpool.
	Pool func() *pgxpool.Pool
}

func New(cfg Config) (*Metrics, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		authEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Eventos de autenticación por resultado",
		}, []string{"event", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"bucket"}),
		tenantUnitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_unit_phase_total",
			Help: "Fases de unidades de trabajo tenant-scoped por resultado",
		}, []string{"phase", "result"}), // phase: acquire|stamp|reset|unit
		tenantUnitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenant_unit_phase_duration_seconds",
			Help:    "Duración de cada fase de una unidad tenant-scoped",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"phase"}),
	}

	collectors := []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.authEventsTotal, m.rateLimited,
		m.tenantUnitTotal, m.tenantUnitDuration,
	}
	if cfg.Pool != nil {
		collectors = append(collectors, newDBPoolCollector(cfg.Pool))
	}
	for _, c := range collectors {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler sirve /metrics sobre el registry propio.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP registra una request terminada.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	method = strings.ToUpper(method)
	m.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// Inflight suma delta al gauge de requests en vuelo.
func (m *Metrics) Inflight(delta float64) {
	if m == nil {
		return
	}
	m.httpInflight.Add(delta)
}

// RecordAuth registra un evento de auth (login, refresh, logout, password_change).
func (m *Metrics) RecordAuth(event, result string) {
	if m == nil {
		return
	}
	m.authEventsTotal.WithLabelValues(event, result).Inc()
}

func (m *Metrics) RecordRateLimited(bucket string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(bucket).Inc()
}

// RecordTenantUnit tiene la firma de tenantsql.MetricsFunc.
func (m *Metrics) RecordTenantUnit(phase, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.tenantUnitTotal.WithLabelValues(phase, result).Inc()
	m.tenantUnitDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// dbPoolCollector expone gauges del pool global.
type dbPoolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc     *prometheus.Desc
	idleDesc         *prometheus.Desc
	totalDesc        *prometheus.Desc
	maxDesc          *prometheus.Desc
	emptyAcquireDesc *prometheus.Desc
}

func newDBPoolCollector(pool func() *pgxpool.Pool) *dbPoolCollector {
	return &dbPoolCollector{
		pool:             pool,
		acquiredDesc:     prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:         prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:        prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
		maxDesc:          prometheus.NewDesc("pg_pool_max", "Máximo de conexiones configurado", nil, nil),
		emptyAcquireDesc: prometheus.NewDesc("pg_pool_empty_acquire_total", "Acquires que tuvieron que esperar una conexión", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
	ch <- c.maxDesc
	ch <- c.emptyAcquireDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.maxDesc, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquireDesc, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// NormalizePath reemplaza segmentos dinámicos (uuids, ids, tokens) por
// ":param" para acotar la cardinalidad. Se usa cuando el router no expone
// el patrón de la ruta.
func NormalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if uuidSegmentRE.MatchString(seg) || hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
