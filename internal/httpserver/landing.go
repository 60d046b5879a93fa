package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/metainject"
	"github.com/duongmedia/linkgate/internal/middleware"
	"github.com/duongmedia/linkgate/internal/models"
	"github.com/duongmedia/linkgate/internal/uaclass"
)

// Landing implements the Landing Handler (spec.md §4.8): serves GET
// /:slug for human traffic and social-preview crawlers, including the
// not-found/fallback page, while short-circuiting every other bot (search
// crawlers included) to the decoy page.
func (s *Server) Landing(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "landing")
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r)
	class := classificationFromContext(ctx)

	if class.ua.IsBot && !uaclass.IsSocialPreviewCrawler(class.ua.BotKind) {
		s.Metrics.IncrementLandingViews("bot")
		serveDecoy(w)
		return
	}

	slug, ok := normalizeSlug(mux.Vars(r)["slug"])
	if !ok {
		s.Metrics.IncrementLandingViews("invalid_slug")
		s.writeLandingPage(w, r, notFoundMeta(requestURL(r)))
		return
	}
	span.SetAttributes(attribute.String("slug", slug))

	queryCtx, cancel := withTimeout(ctx, s.RequestTimeout)
	defer cancel()

	link, err := s.LinkStore.GetBySlug(queryCtx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "link lookup failed")
		logger.Error("landing: link lookup failed", zap.Error(err))
		s.Metrics.IncrementLandingViews("error")
		s.writeLandingPage(w, r, errorMeta(requestURL(r)))
		return
	}

	if link == nil || !link.IsLive(timeNow()) {
		s.Metrics.IncrementLandingViews("not_found")
		s.writeLandingPage(w, r, notFoundMeta(requestURL(r)))
		return
	}

	meta := models.LinkMeta{
		Title:         link.Title,
		Description:   link.Description,
		Image:         link.ImageURL,
		URL:           requestURL(r),
		SiteName:      s.SiteName,
		Type:          "article",
		Author:        link.Author,
		PublishedTime: link.PublishedAt,
	}
	s.writeLandingPage(w, r, meta)
	s.Metrics.IncrementLandingViews("ok")

	if class.ua.IsBot {
		// Social-preview crawlers see the full page but are never logged
		// as a click, per spec.md §8 scenario 2.
		return
	}

	valid := class.ip.IsAllowed
	invalidReason := ""
	if !valid {
		invalidReason = class.ip.Reason
	}
	if s.RateLimiter != nil && !s.RateLimiter.Allow(slug, class.ipAddr) {
		valid = false
		invalidReason = "rate_limited"
	}

	if valid {
		s.Metrics.IncrementClicksValid()
	} else {
		s.Metrics.IncrementClicksInvalid(invalidReason)
	}

	s.Recorder.Enqueue(models.ClickRecord{
		Slug:          slug,
		IP:            class.ipAddr,
		UserAgent:     class.userAgent,
		Referer:       r.Header.Get("Referer"),
		Device:        deviceFromRequest(class.ua),
		Valid:         valid,
		InvalidReason: invalidReason,
		At:            timeNow(),
	})

	if s.Analytics != nil {
		go s.Analytics.RecordClick(ctx, slug, class.ipAddr, deviceFromRequest(class.ua), class.ip.Country, valid, invalidReason)
	}
}

// writeLandingPage renders the current template with meta injected and
// writes it with a 200 status, per spec.md §4.8's "404 metadata, HTTP 200"
// and "fallback HTML, status 200 (SEO-compatible)" rules: every outcome on
// this route is a 200 so crawlers always see a renderable page.
func (s *Server) writeLandingPage(w http.ResponseWriter, r *http.Request, meta models.LinkMeta) {
	template := s.Templates.Get()
	if len(template) == 0 {
		// templatestore.Sentinel: no template has ever loaded. Serve a minimal
		// page that still carries the meta tags and refreshes to the site root.
		template = []byte(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>__META_TITLE__</title>` +
			`<meta property="og:title" content="__META_TITLE__"><meta property="og:description" content="__META_DESCRIPTION__">` +
			`<meta property="og:image" content="__META_IMAGE__"><meta property="og:url" content="__META_URL__">` +
			`<meta http-equiv="refresh" content="0;url=/"></head><body></body></html>`)
	}
	body := metainject.Inject(template, meta)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func notFoundMeta(url string) models.LinkMeta {
	return models.LinkMeta{
		Title: "Không tìm thấy",
		URL:   url,
		Type:  "website",
	}
}

func errorMeta(url string) models.LinkMeta {
	return models.LinkMeta{
		Title: "Đã có lỗi xảy ra",
		URL:   url,
		Type:  "website",
	}
}
