package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry decouples request handlers and background workers from a
// concrete Prometheus wiring, so tests can inject a NoOpRegistry instead of
// standing up a real collector.
type MetricsRegistry interface {
	IncrementRequests(route, status string)
	ObserveRequestDuration(route string, seconds float64)
	IncrementLandingViews(result string)
	IncrementRedirects(result string)
	IncrementClicksValid()
	IncrementClicksInvalid(reason string)
	IncrementClicksDropped()
	IncrementClicksPersistFailed()
	SetClickQueueDepth(depth float64)
	IncrementBannerImpressions(kind string)
	IncrementBannerClicks(kind string)
	IncrementBannerUniqueClicks(kind string)
	IncrementIPClassifierCacheHits()
	IncrementIPClassifierCacheMisses()
	Handler() http.Handler
}

// PrometheusRegistry is the production MetricsRegistry backed by a dedicated
// prometheus.Registry (not the global DefaultRegisterer, so multiple
// instances never collide in tests).
type PrometheusRegistry struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	landingViews *prometheus.CounterVec
	redirects    *prometheus.CounterVec

	clicksValid          prometheus.Counter
	clicksInvalid        *prometheus.CounterVec
	clicksDropped        prometheus.Counter
	clicksPersistFailed  prometheus.Counter
	clickQueueDepth      prometheus.Gauge
	bannerImpressions    *prometheus.CounterVec
	bannerClicks         *prometheus.CounterVec
	bannerUniqueClicks   *prometheus.CounterVec
	ipClassifierCacheHit prometheus.Counter
	ipClassifierCacheMis prometheus.Counter
}

// NewPrometheusRegistry registers the gateway's metric families under the
// given namespace (e.g. "linkgate") and returns a ready-to-use registry.
func NewPrometheusRegistry(namespace string) *PrometheusRegistry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusRegistry{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled, labeled by route and status class.",
		}, []string{"route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds, labeled by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		landingViews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "landing_views_total",
			Help:      "Landing page renders, labeled by outcome (ok, not_found, invalid_slug, bot, error).",
		}, []string{"result"}),
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Bridge redirects served, labeled by outcome.",
		}, []string{"result"}),
		clicksValid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_valid_total",
			Help:      "Click records attributed as valid.",
		}),
		clicksInvalid: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_invalid_total",
			Help:      "Click records attributed as invalid, labeled by reason.",
		}, []string{"reason"}),
		clicksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_dropped_total",
			Help:      "Click records dropped at enqueue (queue full, recorder shutting down, or Redis push failure).",
		}),
		clicksPersistFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_persist_failed_total",
			Help:      "Click records dropped after exhausting persistence retries.",
		}),
		clickQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "click_queue_depth",
			Help:      "Current number of click records waiting in the recorder queue.",
		}),
		bannerImpressions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "banner_impressions_total",
			Help:      "Banner impressions served, labeled by kind.",
		}, []string{"kind"}),
		bannerClicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "banner_clicks_total",
			Help:      "Banner clicks recorded, labeled by kind.",
		}, []string{"kind"}),
		bannerUniqueClicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "banner_unique_clicks_total",
			Help:      "Distinct-IP banner clicks recorded, labeled by kind.",
		}, []string{"kind"}),
		ipClassifierCacheHit: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ip_classifier_cache_hits_total",
			Help:      "IP classifier LRU cache hits.",
		}),
		ipClassifierCacheMis: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ip_classifier_cache_misses_total",
			Help:      "IP classifier LRU cache misses.",
		}),
	}
}

func (p *PrometheusRegistry) IncrementRequests(route, status string) {
	p.requestsTotal.WithLabelValues(route, status).Inc()
}

func (p *PrometheusRegistry) ObserveRequestDuration(route string, seconds float64) {
	p.requestDuration.WithLabelValues(route).Observe(seconds)
}

func (p *PrometheusRegistry) IncrementLandingViews(result string) {
	p.landingViews.WithLabelValues(result).Inc()
}

func (p *PrometheusRegistry) IncrementRedirects(result string) {
	p.redirects.WithLabelValues(result).Inc()
}

func (p *PrometheusRegistry) IncrementClicksValid() {
	p.clicksValid.Inc()
}

func (p *PrometheusRegistry) IncrementClicksInvalid(reason string) {
	p.clicksInvalid.WithLabelValues(reason).Inc()
}

func (p *PrometheusRegistry) IncrementClicksDropped() {
	p.clicksDropped.Inc()
}

func (p *PrometheusRegistry) IncrementClicksPersistFailed() {
	p.clicksPersistFailed.Inc()
}

func (p *PrometheusRegistry) SetClickQueueDepth(depth float64) {
	p.clickQueueDepth.Set(depth)
}

func (p *PrometheusRegistry) IncrementBannerImpressions(kind string) {
	p.bannerImpressions.WithLabelValues(kind).Inc()
}

func (p *PrometheusRegistry) IncrementBannerClicks(kind string) {
	p.bannerClicks.WithLabelValues(kind).Inc()
}

func (p *PrometheusRegistry) IncrementBannerUniqueClicks(kind string) {
	p.bannerUniqueClicks.WithLabelValues(kind).Inc()
}

func (p *PrometheusRegistry) IncrementIPClassifierCacheHits() {
	p.ipClassifierCacheHit.Inc()
}

func (p *PrometheusRegistry) IncrementIPClassifierCacheMisses() {
	p.ipClassifierCacheMis.Inc()
}

func (p *PrometheusRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
