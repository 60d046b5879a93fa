package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/middleware"
	"github.com/duongmedia/linkgate/internal/models"
)

// Redirect implements the Redirect Handler (spec.md §4.9): GET /go/:slug
// on the bridge listener, performing the referrer wash.
func (s *Server) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "redirect")
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r)
	class := classificationFromContext(ctx)

	slug, ok := normalizeSlug(mux.Vars(r)["slug"])
	if !ok {
		s.Metrics.IncrementRedirects("invalid_slug")
		writeMinimalError(w, http.StatusBadRequest, "Invalid link")
		return
	}
	span.SetAttributes(attribute.String("slug", slug))

	queryCtx, cancel := withTimeout(ctx, s.RequestTimeout)
	defer cancel()

	link, err := s.LinkStore.GetBySlug(queryCtx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "link lookup failed")
		logger.Error("redirect: link lookup failed", zap.Error(err))
		s.Metrics.IncrementRedirects("error")
		writeMinimalError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if !link.IsLive(timeNow()) {
		s.Metrics.IncrementRedirects("not_found")
		writeMinimalError(w, http.StatusNotFound, "Link not found")
		return
	}

	w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	http.Redirect(w, r, link.TargetURL, http.StatusFound)
	s.Metrics.IncrementRedirects("ok")

	if class.ua.IsBot {
		return
	}

	valid := class.ip.IsAllowed
	invalidReason := ""
	if !valid {
		invalidReason = class.ip.Reason
	}
	if valid {
		s.Metrics.IncrementClicksValid()
	} else {
		s.Metrics.IncrementClicksInvalid(invalidReason)
	}

	record := models.ClickRecord{
		Slug:          slug,
		IP:            class.ipAddr,
		UserAgent:     class.userAgent,
		Referer:       r.Header.Get("Referer"),
		Device:        deviceFromRequest(class.ua),
		Valid:         valid,
		InvalidReason: invalidReason,
		At:            timeNow(),
	}
	s.Recorder.Enqueue(record)

	if s.Analytics != nil {
		go s.Analytics.RecordClick(ctx, slug, class.ipAddr, deviceFromRequest(class.ua), class.ip.Country, valid, invalidReason)
	}
}

func writeMinimalError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>" + message + "</title></head><body><p>" + message + "</p></body></html>"))
}
