// Package uaclass classifies User-Agent strings into bot/device judgements
// for the HTTP Front's pre-handler chain (SPEC_FULL.md §4.10, spec.md §4.2).
package uaclass

import (
	"regexp"
	"strings"

	"github.com/avct/uasurfer"

	"github.com/duongmedia/linkgate/internal/models"
)

// namedBot pairs a bot-kind label with the substring/regexp that identifies
// it in a User-Agent string. Order matters: the first match wins, so the
// named social-preview crawlers are checked before the generic fallback.
type namedBot struct {
	kind    string
	pattern *regexp.Regexp
}

var namedBots = []namedBot{
	{"facebookexternalhit", regexp.MustCompile(`(?i)facebookexternalhit`)},
	{"twitterbot", regexp.MustCompile(`(?i)twitterbot`)},
	{"linkedinbot", regexp.MustCompile(`(?i)linkedinbot`)},
	{"telegrambot", regexp.MustCompile(`(?i)telegrambot`)},
	{"whatsapp", regexp.MustCompile(`(?i)whatsapp`)},
	{"zalo", regexp.MustCompile(`(?i)zalo`)},
	{"googlebot", regexp.MustCompile(`(?i)googlebot`)},
}

var mobileMarkers = regexp.MustCompile(`(?i)(mobile|android|iphone|ipad)`)

// Classifier classifies User-Agent strings. It holds no state and is safe
// for concurrent use by any number of request goroutines.
type Classifier struct{}

// New constructs a UA Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns {isBot, botKind, deviceType} for the given User-Agent
// header value, per spec.md §4.2.
func (c *Classifier) Classify(ua string) models.UAClassification {
	if ua == "" {
		return models.UAClassification{DeviceType: models.DeviceTypeUnknown}
	}

	result := models.UAClassification{DeviceType: deviceFor(ua)}

	for _, nb := range namedBots {
		if nb.pattern.MatchString(ua) {
			result.IsBot = true
			result.BotKind = nb.kind
			return result
		}
	}

	// Fall back to uasurfer's generic bot heuristics for anything not
	// covered by the named social-preview/search crawler table above.
	parsed := uasurfer.Parse(ua)
	if parsed.IsBot() {
		result.IsBot = true
		result.BotKind = "generic"
	}

	return result
}

// IsSocialPreviewCrawler reports whether botKind names a crawler that
// fetches pages to render a social-media link preview rather than to index
// content or scrape it. The Landing Handler serves these the full
// meta-injected page instead of the decoy (see SPEC_FULL.md §4.10's
// resolution of spec.md §9's open question).
func IsSocialPreviewCrawler(botKind string) bool {
	switch botKind {
	case "facebookexternalhit", "twitterbot", "linkedinbot", "telegrambot", "whatsapp", "zalo":
		return true
	default:
		return false
	}
}

func deviceFor(ua string) string {
	if mobileMarkers.MatchString(ua) {
		return models.DeviceTypeMobile
	}
	if strings.TrimSpace(ua) == "" {
		return models.DeviceTypeUnknown
	}
	return models.DeviceTypeDesktop
}
