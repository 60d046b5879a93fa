// Package httpserver implements the HTTP Front, Landing Handler, and
// Redirect Handler (spec.md §4.8-§4.10). Routing and handler structure are
// grounded on the teacher's internal/api package: gorilla/mux routes,
// per-request OTel spans (internal/api/click.go, internal/api/impression.go),
// and the trace-aware logger from internal/middleware/trace_logger.go.
package httpserver

import (
	"context"
	"time"

	"github.com/duongmedia/linkgate/internal/analytics"
	"github.com/duongmedia/linkgate/internal/bannerstore"
	"github.com/duongmedia/linkgate/internal/clickrecorder"
	"github.com/duongmedia/linkgate/internal/dbx"
	"github.com/duongmedia/linkgate/internal/geoclass"
	"github.com/duongmedia/linkgate/internal/linkstore"
	"github.com/duongmedia/linkgate/internal/observability"
	"github.com/duongmedia/linkgate/internal/ratelimit"
	"github.com/duongmedia/linkgate/internal/templatestore"
	"github.com/duongmedia/linkgate/internal/uaclass"
)

// Server bundles every component the HTTP Front wires together. One Server
// backs both the landing listener and the bridge listener, mirroring
// spec.md §4.9's "may be a separate process, or second route namespace."
type Server struct {
	SiteName       string
	RequestTimeout time.Duration

	TrustProxyHeaders bool
	TrustedProxies    []string

	LinkStore     *linkstore.Store
	BannerStore   *bannerstore.Store
	Recorder      *clickrecorder.Recorder
	GeoClassifier *geoclass.Classifier
	UAClassifier  *uaclass.Classifier
	Templates     *templatestore.Store
	RateLimiter   *ratelimit.Limiter
	Metrics       observability.MetricsRegistry
	Analytics     *analytics.Mirror

	Postgres   *dbx.Postgres
	RedisQueue *dbx.RedisQueue

	startedAt time.Time
}

// New constructs a Server. startedAt is recorded for the /health uptime
// field.
func New(s Server) *Server {
	s.startedAt = time.Now()
	return &s
}

func (s *Server) uptime() time.Duration {
	return time.Since(s.startedAt)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 2 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
