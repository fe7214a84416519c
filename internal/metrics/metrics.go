// Package metrics exposes Prometheus counters for the lookup pipelines.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes for the nutrition cache.
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// Metrics owns its registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	nutritionLookups   *prometheus.CounterVec
	storeWriteFailures prometheus.Counter
	recipeSearches     *prometheus.CounterVec
	completions        *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nutritionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutrition_lookups_total",
			Help: "Nutrition lookups by cache outcome.",
		}, []string{"result"}),
		storeWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutrition_store_write_failures_total",
			Help: "Nutrition records that could not be persisted.",
		}),
		recipeSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_searches_total",
			Help: "Recipe similarity searches by outcome.",
		}, []string{"result"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_completions_total",
			Help: "Generative model calls by outcome.",
		}, []string{"kind", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.nutritionLookups,
		m.storeWriteFailures,
		m.recipeSearches,
		m.completions,
		m.httpDuration,
	)
	return m
}

// Registry is exposed for tests and for registering extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) NutritionLookup(result string) {
	if m == nil {
		return
	}
	m.nutritionLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) StoreWriteFailed() {
	if m == nil {
		return
	}
	m.storeWriteFailures.Inc()
}

func (m *Metrics) RecipeSearch(result string) {
	if m == nil {
		return
	}
	m.recipeSearches.WithLabelValues(result).Inc()
}

func (m *Metrics) Completion(kind string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.completions.WithLabelValues(kind, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
