package models

import "time"

// Link is the unit of distributed content: a short slug that resolves to an
// affiliate target URL, plus the metadata needed to render a social-preview
// landing page for it.
type Link struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	TargetURL   string    `json:"targetUrl"`
	Active      bool      `json:"active"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`

	TotalClicks int64 `json:"totalClicks"`
	ValidClicks int64 `json:"validClicks"`
}

// IsLive reports whether the link should be served: active, and not past its
// optional expiry. A nil link (not found) is never live.
func (l *Link) IsLive(now time.Time) bool {
	if l == nil {
		return false
	}
	if !l.Active {
		return false
	}
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return false
	}
	return true
}
