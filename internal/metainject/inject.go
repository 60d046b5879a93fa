// Package metainject implements the Meta Injector (spec.md §4.4): a pure,
// deterministic substitution of named placeholders into a landing-page
// template. Escaping follows the teacher's
// internal/logic/render/banner.go convention of using html.EscapeString for
// any value interpolated into HTML attribute/text position.
package metainject

import (
	"bytes"
	"html"

	"github.com/duongmedia/linkgate/internal/models"
)

var placeholders = []string{
	"__META_TITLE__",
	"__META_DESCRIPTION__",
	"__META_IMAGE__",
	"__META_URL__",
	"__META_SITE_NAME__",
	"__META_TYPE__",
	"__META_AUTHOR__",
	"__META_PUBLISHED_TIME__",
}

// Inject substitutes the eight named placeholders in template with
// HTML-escaped values from meta. Missing fields become empty strings.
// Unknown placeholders are left untouched. Deterministic; performs no I/O.
func Inject(template []byte, meta models.LinkMeta) []byte {
	values := map[string]string{
		"__META_TITLE__":          meta.Title,
		"__META_DESCRIPTION__":    meta.Description,
		"__META_IMAGE__":          meta.Image,
		"__META_URL__":            meta.URL,
		"__META_SITE_NAME__":      meta.SiteName,
		"__META_TYPE__":           meta.Type,
		"__META_AUTHOR__":         meta.Author,
		"__META_PUBLISHED_TIME__": meta.PublishedTimeRFC3339(),
	}

	out := template
	for _, placeholder := range placeholders {
		out = bytes.ReplaceAll(out, []byte(placeholder), []byte(html.EscapeString(values[placeholder])))
	}
	return out
}
