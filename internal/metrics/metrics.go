package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Domain collectors. Registered once at package load.
var (
	// ReportRuns counts research report computations.
	ReportRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beemon_report_runs_total",
		Help: "Number of research report aggregation runs.",
	})
	// ReportDuration observes wall-clock duration of report runs.
	ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beemon_report_duration_seconds",
		Help:    "Duration of research report aggregation runs.",
		Buckets: prometheus.DefBuckets,
	})
	// TelemetryQueryFailures counts degraded time-series queries.
	TelemetryQueryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beemon_telemetry_query_failures_total",
		Help: "Telemetry queries that failed and degraded to zero measurements.",
	})
	// ExportsGenerated counts spreadsheet artifacts written to object storage.
	ExportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beemon_exports_generated_total",
		Help: "Research export spreadsheets generated.",
	})
)

var (
	initOnce     sync.Once
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
)

// InitMetrics registers the HTTP instrumentation collectors. Safe to call
// more than once.
func InitMetrics() {
	initOnce.Do(func() {
		httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beemon_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"})

		httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beemon_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})
	})
}

// Middleware instruments every request with count and duration metrics.
func Middleware() gin.HandlerFunc {
	InitMetrics()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
