package models

import "time"

// BannerKind enumerates the display slots a banner can be placed into.
type BannerKind string

const (
	BannerKindStickyBottom BannerKind = "sticky_bottom"
	BannerKindCenterPopup  BannerKind = "center_popup"
	BannerKindSidebar      BannerKind = "sidebar"
	BannerKindInline       BannerKind = "inline"
	BannerKindHeader       BannerKind = "header"
)

// DeviceConstraint restricts a banner to a device class, or "any".
type DeviceConstraint string

const (
	DeviceAny     DeviceConstraint = "any"
	DeviceMobile  DeviceConstraint = "mobile"
	DeviceDesktop DeviceConstraint = "desktop"
)

// Banner is the unit of advertising: an image shown in a fixed slot that
// routes clicks either to one of our own links (by slug) or to an external
// URL directly.
type Banner struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	ImageURL       string     `json:"imageUrl"`
	MobileImageURL string     `json:"mobileImageUrl,omitempty"`
	AltText        string     `json:"altText"`
	TargetSlug     string     `json:"targetSlug,omitempty"`
	TargetURL      string     `json:"targetUrl,omitempty"`
	Kind           BannerKind `json:"kind"`
	Active         bool       `json:"active"`
	StartAt        *time.Time `json:"startAt,omitempty"`
	EndAt          *time.Time `json:"endAt,omitempty"`

	DeviceConstraint DeviceConstraint `json:"deviceConstraint"`
	TargetArticles   []string         `json:"targetArticles,omitempty"`
	TargetCategories []string         `json:"targetCategories,omitempty"`

	Weight   int `json:"weight"`
	Priority int `json:"priority"`

	DisplayWidthPercent int  `json:"displayWidthPercent"`
	ShowDelaySeconds    int  `json:"showDelaySeconds"`
	AutoHideAfterMs     int  `json:"autoHideAfterMs"`
	Dismissible         bool `json:"dismissible"`

	Impressions  int64    `json:"impressions"`
	Clicks       int64    `json:"clicks"`
	UniqueClicks int64    `json:"uniqueClicks"`
	ClickedIPs   []string `json:"-"`
}

// IsActiveAt reports whether the banner's active flag and optional
// start/end window cover the given instant.
func (b *Banner) IsActiveAt(now time.Time) bool {
	if b == nil || !b.Active {
		return false
	}
	if b.StartAt != nil && now.Before(*b.StartAt) {
		return false
	}
	if b.EndAt != nil && now.After(*b.EndAt) {
		return false
	}
	return true
}

// TargetURLFor resolves the destination URL for this banner given a slug
// resolver for the preferred targetSlug reference.
func (b *Banner) TargetURLFor(resolveSlugURL func(slug string) (string, bool)) string {
	if b.TargetSlug != "" && resolveSlugURL != nil {
		if url, ok := resolveSlugURL(b.TargetSlug); ok {
			return url
		}
	}
	return b.TargetURL
}

// BannerPublic is the subset of a banner exposed by the /api/banners/random
// endpoint, per SPEC_FULL.md §6.
type BannerPublic struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	ImageURL            string     `json:"imageUrl"`
	MobileImageURL      string     `json:"mobileImageUrl,omitempty"`
	TargetSlug          string     `json:"targetSlug,omitempty"`
	Kind                BannerKind `json:"kind"`
	AltText             string     `json:"altText"`
	ShowDelaySeconds    int        `json:"showDelaySeconds"`
	AutoHideAfterMs     int        `json:"autoHideAfterMs"`
	Dismissible         bool       `json:"dismissible"`
	DisplayWidthPercent int        `json:"displayWidthPercent"`
}

// Public projects a Banner down to its wire-safe fields.
func (b *Banner) Public() BannerPublic {
	return BannerPublic{
		ID:                  b.ID,
		Name:                b.Name,
		ImageURL:            b.ImageURL,
		MobileImageURL:      b.MobileImageURL,
		TargetSlug:          b.TargetSlug,
		Kind:                b.Kind,
		AltText:             b.AltText,
		ShowDelaySeconds:    b.ShowDelaySeconds,
		AutoHideAfterMs:     b.AutoHideAfterMs,
		Dismissible:         b.Dismissible,
		DisplayWidthPercent: b.DisplayWidthPercent,
	}
}
