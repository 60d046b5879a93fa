package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/geoclass"
	"github.com/duongmedia/linkgate/internal/middleware"
	"github.com/duongmedia/linkgate/internal/models"
)

var tracer = otel.Tracer("linkgate/httpserver")

type classificationKey struct{}

type classification struct {
	ip models.IPClassification
	ua models.UAClassification
	ipAddr string
	userAgent string
}

// NewLandingRouter builds the main listener's route table: the landing
// page, banner API, health check, and metrics exposition, per
// spec.md §4.10.
func (s *Server) NewLandingRouter(logger *zap.Logger, metricsHandler http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))
	r.Use(s.classifyMiddleware)

	r.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/banners/random", s.BannerRandom).Methods(http.MethodGet)
	r.HandleFunc("/api/banners/{id}/click", s.BannerClick).Methods(http.MethodPost)
	r.HandleFunc("/{slug}", s.Landing).Methods(http.MethodGet)

	return r
}

// NewBridgeRouter builds the second listener's route table: just the
// referrer-washing redirect, per spec.md §4.9.
func (s *Server) NewBridgeRouter(logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))
	r.Use(s.classifyMiddleware)

	r.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	r.HandleFunc("/go/{slug}", s.Redirect).Methods(http.MethodGet)

	return r
}

// classifyMiddleware implements the pre-handler chain from spec.md §4.10:
// extract the client IP, run both classifiers, and stash the result on the
// request context for every downstream handler. Bot short-circuiting to
// the decoy page is applied only for the landing route, inside Landing
// itself, since API routes must pass bots through per step 4.
func (s *Server) classifyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := geoclass.ExtractClientIP(r, s.TrustProxyHeaders, s.TrustedProxies)
		ipClass := s.GeoClassifier.Classify(ip)
		uaClass := s.UAClassifier.Classify(r.Header.Get("User-Agent"))

		c := classification{ip: ipClass, ua: uaClass, ipAddr: ip, userAgent: r.Header.Get("User-Agent")}
		ctx := contextWithClassification(r.Context(), c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func normalizeSlug(raw string) (string, bool) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if slug == "" || strings.Contains(slug, "/") {
		return "", false
	}
	if len(slug) > 128 {
		return "", false
	}
	for _, ch := range slug {
		if !((ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '-') {
			return "", false
		}
	}
	return slug, true
}

func deviceFromRequest(ua models.UAClassification) string {
	return ua.DeviceType
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return scheme + "://" + host + r.URL.RequestURI()
}

func timeNow() time.Time { return time.Now() }
