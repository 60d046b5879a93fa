// Package bannerstore implements the Banner Store (spec.md §4.6): active
// banner lookup, targeting filters, weighted random selection, and
// impression/click counters. The filter pipeline is grounded on the
// teacher's internal/logic/filters/filters.go (FilterByTargeting /
// FilterBySize / FilterByActive style of successive narrowing passes) and
// is the explicit fix for spec.md §9's double-$or Mongo query bug: the
// persistence adapter exposes only ListActiveBanners(kind, now), and every
// targeting predicate below runs in-process.
package bannerstore

import (
	"time"

	"github.com/duongmedia/linkgate/internal/models"
)

// SelectionContext is the request-derived context a selection is run
// against, per spec.md §4.6's selectRandom(context) signature.
type SelectionContext struct {
	Kind        models.BannerKind
	Device      string
	ArticleSlug string
	Category    string
	Now         time.Time
}

// FilterActive keeps banners whose active flag and start/end window cover
// ctx.Now.
func FilterActive(banners []models.Banner, now time.Time) []models.Banner {
	out := banners[:0:0]
	for _, b := range banners {
		if b.IsActiveAt(now) {
			out = append(out, b)
		}
	}
	return out
}

// FilterByDevice keeps banners whose deviceConstraint matches ctx.Device.
func FilterByDevice(banners []models.Banner, device string) []models.Banner {
	out := banners[:0:0]
	for _, b := range banners {
		switch b.DeviceConstraint {
		case models.DeviceAny, "":
			out = append(out, b)
		case models.DeviceMobile:
			if device == models.DeviceTypeMobile {
				out = append(out, b)
			}
		case models.DeviceDesktop:
			if device == models.DeviceTypeDesktop {
				out = append(out, b)
			}
		}
	}
	return out
}

// FilterByArticle keeps banners whose targetArticles is empty (matches
// every article) or contains articleSlug.
func FilterByArticle(banners []models.Banner, articleSlug string) []models.Banner {
	out := banners[:0:0]
	for _, b := range banners {
		if len(b.TargetArticles) == 0 || contains(b.TargetArticles, articleSlug) {
			out = append(out, b)
		}
	}
	return out
}

// FilterByCategory keeps banners whose targetCategories is empty or
// contains category.
func FilterByCategory(banners []models.Banner, category string) []models.Banner {
	out := banners[:0:0]
	for _, b := range banners {
		if len(b.TargetCategories) == 0 || contains(b.TargetCategories, category) {
			out = append(out, b)
		}
	}
	return out
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// ApplyTargeting runs the full filter pipeline from spec.md §4.6 steps 1-4.
// banners must already be the result of ListActiveBanners(kind, now) (step
// 1's kind + active/window filter is pre-applied by the caller against the
// persistence adapter; FilterActive is re-applied here defensively in case
// the adapter's notion of "now" has drifted since the query ran).
func ApplyTargeting(banners []models.Banner, ctx SelectionContext) []models.Banner {
	filtered := FilterActive(banners, ctx.Now)
	filtered = FilterByDevice(filtered, ctx.Device)
	filtered = FilterByArticle(filtered, ctx.ArticleSlug)
	filtered = FilterByCategory(filtered, ctx.Category)
	return filtered
}
