// Package geoclass implements the IP Classifier (spec.md §4.1): it extracts
// the client IP from a request, looks it up against on-disk range
// databases, and renders an allow/deny judgement used to attribute click
// validity.
package geoclass

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/models"
	"github.com/duongmedia/linkgate/internal/observability"
)

// Classifier wraps the IPv4/IPv6 MaxMind-format range databases and a
// bounded per-IP cache. Opened once at boot and held for the process
// lifetime, per spec.md §3 IpRangeDb.
type Classifier struct {
	readerV4 *geoip2.Reader
	readerV6 *geoip2.Reader

	cache   *lruCache
	metrics observability.MetricsRegistry

	allowCountries map[string]struct{}
	datacenterISPs []string
}

// Config configures a new Classifier.
type Config struct {
	PathV4         string
	PathV6         string
	CacheTTL       time.Duration
	CacheSize      int
	AllowCountries []string
	DatacenterISPs []string
	Metrics        observability.MetricsRegistry
}

// New opens the range databases named in cfg. A missing or unreadable
// database is not fatal: the classifier falls back to fail-open behavior
// for every lookup and logs a warning, per spec.md §4.1's failure mode.
func New(cfg Config) *Classifier {
	c := &Classifier{
		cache:          newLRUCache(cfg.CacheSize, cfg.CacheTTL),
		metrics:        cfg.Metrics,
		allowCountries: toSet(cfg.AllowCountries),
		datacenterISPs: lower(cfg.DatacenterISPs),
	}

	if r, err := geoip2.Open(cfg.PathV4); err != nil {
		zap.L().Warn("open ipv4 range database", zap.String("path", cfg.PathV4), zap.Error(err))
	} else {
		c.readerV4 = r
	}

	if r, err := geoip2.Open(cfg.PathV6); err != nil {
		zap.L().Warn("open ipv6 range database", zap.String("path", cfg.PathV6), zap.Error(err))
	} else {
		c.readerV6 = r
	}

	return c
}

// Close releases the underlying memory-mapped database files.
func (c *Classifier) Close() {
	if c.readerV4 != nil {
		_ = c.readerV4.Close()
	}
	if c.readerV6 != nil {
		_ = c.readerV6.Close()
	}
}

// Classify resolves the classification for a single IP address.
func (c *Classifier) Classify(ipStr string) models.IPClassification {
	ip := net.ParseIP(stripV4InV6Prefix(ipStr))
	if ip == nil {
		return models.IPClassification{IsAllowed: true, Reason: "unparseable_ip"}
	}

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || isUniqueLocal(ip) {
		return models.IPClassification{
			Version:   ipVersion(ip),
			IsPrivate: true,
			IsAllowed: true,
			Reason:    "private_ip",
		}
	}

	if cached, ok := c.cache.get(ipStr); ok {
		c.metrics.IncrementIPClassifierCacheHits()
		return cached
	}
	c.metrics.IncrementIPClassifierCacheMisses()

	result := c.lookup(ip)
	c.cache.set(ipStr, result)
	return result
}

func (c *Classifier) lookup(ip net.IP) models.IPClassification {
	reader := c.readerV4
	version := 4
	if ip.To4() == nil {
		reader = c.readerV6
		version = 6
	}

	if reader == nil {
		return models.IPClassification{Version: version, IsAllowed: true, Reason: "db_not_ready"}
	}

	country, err := reader.Country(ip)
	if err != nil {
		zap.L().Warn("ip country lookup failed", zap.Error(err))
		return models.IPClassification{Version: version, IsAllowed: true, Reason: "db_not_ready"}
	}

	isp := ""
	if ispRecord, err := reader.ISP(ip); err == nil && ispRecord != nil {
		isp = ispRecord.ISP
		if isp == "" {
			isp = ispRecord.AutonomousSystemOrganization
		}
	}

	result := models.IPClassification{
		Version: version,
		Country: country.Country.IsoCode,
		ISP:     isp,
	}
	result.IsDatacenter = c.isDatacenterISP(isp)

	// ISP check takes precedence over the country allow-list: a datacenter
	// ISP is disallowed regardless of which country it's registered in, per
	// spec.md §8's boundary-behaviour precedence rule.
	switch {
	case result.IsDatacenter:
		result.IsAllowed = false
		result.Reason = "suspicious_isp"
	case !c.isAllowedCountry(result.Country):
		result.IsAllowed = false
		result.Reason = "country_not_allowed"
	default:
		result.IsAllowed = true
		result.Reason = "ok"
	}

	return result
}

func (c *Classifier) isAllowedCountry(country string) bool {
	if len(c.allowCountries) == 0 {
		return true
	}
	_, ok := c.allowCountries[strings.ToUpper(country)]
	return ok
}

func (c *Classifier) isDatacenterISP(isp string) bool {
	lowered := strings.ToLower(isp)
	for _, substr := range c.datacenterISPs {
		if substr != "" && strings.Contains(lowered, substr) {
			return true
		}
	}
	return false
}

// ExtractClientIP implements the header-precedence order from spec.md §4.1:
// CF-Connecting-IP, X-Real-IP, the first non-private entry in
// X-Forwarded-For, then the socket peer. When trustProxyHeaders is false the
// proxy headers are ignored entirely and only the socket peer is used,
// unless the peer address equals an entry of trustedProxies or falls inside
// a CIDR entry of it.
func ExtractClientIP(r *http.Request, trustProxyHeaders bool, trustedProxies []string) string {
	peerIP := peerAddr(r.RemoteAddr)

	if !trustProxyHeaders && !isTrustedProxy(peerIP, trustedProxies) {
		return peerIP
	}

	if v := r.Header.Get("CF-Connecting-IP"); v != "" {
		return stripV4InV6Prefix(strings.TrimSpace(v))
	}
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return stripV4InV6Prefix(strings.TrimSpace(v))
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		for _, candidate := range strings.Split(v, ",") {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			stripped := stripV4InV6Prefix(candidate)
			ip := net.ParseIP(stripped)
			if ip != nil && !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() {
				return stripped
			}
		}
		// every hop was private; fall through to the first entry rather
		// than discard the header entirely
		first := strings.TrimSpace(strings.Split(v, ",")[0])
		if first != "" {
			return first
		}
	}

	return peerIP
}

func peerAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrustedProxy(ip string, trusted []string) bool {
	parsed := net.ParseIP(ip)
	for _, t := range trusted {
		if t == ip {
			return true
		}
		if _, cidr, err := net.ParseCIDR(t); err == nil && parsed != nil && cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

func stripV4InV6Prefix(ip string) string {
	return strings.TrimPrefix(ip, "::ffff:")
}

func isUniqueLocal(ip net.IP) bool {
	return ip.To4() == nil && len(ip) == net.IPv6len && ip[0]&0xfe == 0xfc
}

func ipVersion(ip net.IP) int {
	if ip.To4() != nil {
		return 4
	}
	return 6
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = struct{}{}
	}
	return set
}

func lower(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
