package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the service. It also
// implements forecast.MetricsRecorder so the engine can report cache and
// provider outcomes.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	providerCalls  *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecast_cache_hits_total",
			Help: "Forecast cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "forecast_cache_misses_total",
			Help: "Forecast cache misses.",
		}),
		providerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_provider_calls_total",
			Help: "Upstream provider calls by provider.",
		}, []string{"provider"}),
		providerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_provider_errors_total",
			Help: "Failed upstream provider calls by provider.",
		}, []string{"provider"}),
	}
}

// Handler records request duration per method, route and status.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// HTTPHandler exposes the registry in the prometheus text format.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordCacheHit(ctx context.Context) {
	m.cacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss(ctx context.Context) {
	m.cacheMisses.Inc()
}

func (m *Metrics) RecordProviderCall(ctx context.Context, provider string, success bool) {
	m.providerCalls.WithLabelValues(provider).Inc()
	if !success {
		m.providerErrors.WithLabelValues(provider).Inc()
	}
}
