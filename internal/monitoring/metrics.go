package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the extraction service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Engine metrics
	ProbesTotal      *prometheus.CounterVec
	ExtractionsTotal *prometheus.CounterVec
	RecordsEmitted   prometheus.Counter
	GraceTimeouts    prometheus.Counter

	// Fetch metrics
	FetchDuration *prometheus.HistogramVec
}

// New creates a metrics collector registered on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bibharvest_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bibharvest_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		ProbesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bibharvest_probes_total",
				Help: "Translator detection calls by outcome",
			},
			[]string{"outcome"},
		),
		ExtractionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bibharvest_extractions_total",
				Help: "Translator extraction runs by outcome",
			},
			[]string{"outcome"},
		),
		RecordsEmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bibharvest_records_emitted_total",
				Help: "Finalized records emitted by translators",
			},
		),
		GraceTimeouts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bibharvest_grace_period_timeouts_total",
				Help: "Extraction runs interrupted at the grace period bound",
			},
		),
		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bibharvest_fetch_duration_seconds",
				Help:    "Outbound fetch duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
	}
}

// Handler returns the Prometheus scrape handler wrapped for gin.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
