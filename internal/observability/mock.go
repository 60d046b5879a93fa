package observability

import "net/http"

// NoOpRegistry discards every metric. Used by tests and by any deployment
// that chooses not to configure Prometheus scraping.
type NoOpRegistry struct{}

func (NoOpRegistry) IncrementRequests(route, status string)      {}
func (NoOpRegistry) ObserveRequestDuration(route string, s float64) {}
func (NoOpRegistry) IncrementLandingViews(result string)          {}
func (NoOpRegistry) IncrementRedirects(result string)             {}
func (NoOpRegistry) IncrementClicksValid()                        {}
func (NoOpRegistry) IncrementClicksInvalid(reason string)         {}
func (NoOpRegistry) IncrementClicksDropped()                      {}
func (NoOpRegistry) IncrementClicksPersistFailed()                {}
func (NoOpRegistry) SetClickQueueDepth(depth float64)             {}
func (NoOpRegistry) IncrementBannerImpressions(kind string)        {}
func (NoOpRegistry) IncrementBannerClicks(kind string)             {}
func (NoOpRegistry) IncrementBannerUniqueClicks(kind string)       {}
func (NoOpRegistry) IncrementIPClassifierCacheHits()               {}
func (NoOpRegistry) IncrementIPClassifierCacheMisses()             {}
func (NoOpRegistry) Handler() http.Handler                        { return http.NotFoundHandler() }
