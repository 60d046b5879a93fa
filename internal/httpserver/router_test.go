package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duongmedia/linkgate/internal/geoclass"
	"github.com/duongmedia/linkgate/internal/observability"
	"github.com/duongmedia/linkgate/internal/uaclass"
)

func TestNormalizeSlug(t *testing.T) {
	cases := []struct {
		in    string
		slug  string
		valid bool
	}{
		{"Flash50", "flash50", true},
		{"  flash-50  ", "flash-50", true},
		{"", "", false},
		{"a/b", "", false},
		{"has space", "", false},
		{"UPPER_CASE", "", false},
	}
	for _, c := range cases {
		slug, ok := normalizeSlug(c.in)
		assert.Equal(t, c.valid, ok, c.in)
		if ok {
			assert.Equal(t, c.slug, slug)
		}
	}
}

func TestNormalizeSlug_RejectsOverLength(t *testing.T) {
	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	_, ok := normalizeSlug(string(long))
	assert.False(t, ok)
}

func TestRequestURL_UsesForwardedHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	r.Header.Set("X-Forwarded-Host", "example.com")

	assert.Equal(t, "https://example.com/flash50", requestURL(r))
}

func TestRequestURL_DefaultsToHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	r.Host = "internal.local"

	assert.Equal(t, "http://internal.local/flash50", requestURL(r))
}

func TestClassifyMiddleware_AttachesClassification(t *testing.T) {
	s := &Server{
		GeoClassifier: geoclass.New(geoclass.Config{Metrics: observability.NoOpRegistry{}}),
		UAClassifier:  uaclass.New(),
	}

	var observed classification
	handler := s.classifyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observed = classificationFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	req.Header.Set("User-Agent", "facebookexternalhit/1.1")
	req.RemoteAddr = "203.0.113.5:12345"

	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, observed.ua.IsBot)
	assert.Equal(t, "facebookexternalhit", observed.ua.BotKind)
	assert.Equal(t, "203.0.113.5", observed.ipAddr)
}

func TestServeDecoy_SetsNoindexHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	serveDecoy(rec)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "noindex, nofollow", rec.Header().Get("X-Robots-Tag"))
	assert.Contains(t, rec.Body.String(), "<html")
}

func TestTimeNow_IsMonotonicallyIncreasing(t *testing.T) {
	first := timeNow()
	time.Sleep(time.Millisecond)
	second := timeNow()
	assert.True(t, second.After(first))
}
