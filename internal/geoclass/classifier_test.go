package geoclass

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duongmedia/linkgate/internal/observability"
)

func newTestClassifier() *Classifier {
	return New(Config{
		PathV4:         "/nonexistent/v4.mmdb",
		PathV6:         "/nonexistent/v6.mmdb",
		CacheTTL:       0,
		CacheSize:      16,
		AllowCountries: []string{"VN"},
		DatacenterISPs: []string{"google", "amazon"},
		Metrics:        observability.NoOpRegistry{},
	})
}

func TestClassify_PrivateIP_AllowedWithoutLookup(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("192.168.1.5")
	assert.True(t, got.IsAllowed)
	assert.True(t, got.IsPrivate)
	assert.Equal(t, "private_ip", got.Reason)
}

func TestClassify_MissingDatabase_FailsOpen(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("123.21.0.1")
	assert.True(t, got.IsAllowed)
	assert.Equal(t, "db_not_ready", got.Reason)
}

func TestClassify_UnparseableIP(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify("not-an-ip")
	assert.True(t, got.IsAllowed)
	assert.Equal(t, "unparseable_ip", got.Reason)
}

func TestExtractClientIP_PrecedenceOrder(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("CF-Connecting-IP", "1.1.1.1")
	req.Header.Set("X-Real-IP", "2.2.2.2")
	req.Header.Set("X-Forwarded-For", "3.3.3.3, 10.0.0.2")

	got := ExtractClientIP(req, true, nil)
	assert.Equal(t, "1.1.1.1", got)
}

func TestExtractClientIP_XForwardedFor_SkipsPrivateHops(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 123.21.0.1, 8.8.8.8")

	got := ExtractClientIP(req, true, nil)
	assert.Equal(t, "123.21.0.1", got)
}

func TestExtractClientIP_UntrustedProxy_UsesSocketPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("X-Forwarded-For", "123.21.0.1")

	got := ExtractClientIP(req, false, nil)
	assert.Equal(t, "10.0.0.1", got)
}

func TestExtractClientIP_StripsV4InV6Prefix(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/flash50", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("CF-Connecting-IP", "::ffff:123.21.0.1")

	got := ExtractClientIP(req, true, nil)
	assert.Equal(t, "123.21.0.1", got)
}
