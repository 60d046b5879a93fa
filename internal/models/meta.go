package models

import "time"

// LinkMeta is the set of values the Meta Injector substitutes into a
// landing-page template. Every field is HTML-escaped at substitution time;
// a zero-value field becomes an empty string in the output, never the
// literal placeholder.
type LinkMeta struct {
	Title         string
	Description   string
	Image         string
	URL           string
	SiteName      string
	Type          string
	Author        string
	PublishedTime time.Time
}

// PublishedTimeRFC3339 renders PublishedTime in the format social-preview
// crawlers expect for article:published_time, or empty when unset.
func (m LinkMeta) PublishedTimeRFC3339() string {
	if m.PublishedTime.IsZero() {
		return ""
	}
	return m.PublishedTime.Format(time.RFC3339)
}
