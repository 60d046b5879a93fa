package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/bannerstore"
	"github.com/duongmedia/linkgate/internal/middleware"
	"github.com/duongmedia/linkgate/internal/models"
)

// BannerRandom implements GET /api/banners/random (spec.md §4.6): resolves
// a single banner via the full filter + weighted-draw pipeline for the
// request's kind/device/article/category query parameters.
func (s *Server) BannerRandom(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "banners.random")
	defer span.End()

	logger := middleware.LoggerFromRequest(r)
	q := r.URL.Query()

	kind := models.BannerKind(q.Get("kind"))
	if kind == "" {
		kind = models.BannerKindStickyBottom
	}
	class := classificationFromContext(ctx)
	device := q.Get("device")
	if device == "" {
		device = deviceFromRequest(class.ua)
	}

	queryCtx, cancel := withTimeout(ctx, s.RequestTimeout)
	defer cancel()

	active, err := s.BannerStore.ListActiveBanners(queryCtx, kind, timeNow())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list active banners failed")
		logger.Error("banners.random: list active failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	selCtx := bannerstore.SelectionContext{
		Kind:        kind,
		Device:      device,
		ArticleSlug: q.Get("article"),
		Category:    q.Get("category"),
		Now:         timeNow(),
	}
	chosen := bannerstore.SelectRandom(active, selCtx, rand.New(rand.NewSource(randSeed())))
	if chosen == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"banner": nil})
		return
	}

	if err := s.BannerStore.RecordImpression(queryCtx, chosen.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record impression failed")
		logger.Error("banners.random: record impression failed", zap.Int64("banner_id", chosen.ID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.Metrics.IncrementBannerImpressions(string(chosen.Kind))
	if s.Analytics != nil {
		go func() {
			bgCtx, cancel := withTimeout(context.Background(), s.RequestTimeout)
			defer cancel()
			_ = s.Analytics.RecordBannerImpression(bgCtx, chosen.ID, string(chosen.Kind))
		}()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"banner": chosen.Public()})
}

// BannerClick implements POST /api/banners/:id/click (spec.md §4.6): records
// a click and, on first sight of the caller's IP, a unique click.
func (s *Server) BannerClick(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "banners.click")
	defer span.End()

	logger := middleware.LoggerFromRequest(r)
	class := classificationFromContext(ctx)

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid banner id")
		return
	}

	queryCtx, cancel := withTimeout(ctx, s.RequestTimeout)
	defer cancel()

	if err := s.BannerStore.RecordClick(queryCtx, id, class.ipAddr); err != nil {
		if errors.Is(err, bannerstore.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "banner not found")
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "record banner click failed")
		logger.Error("banners.click: record click failed", zap.Int64("banner_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.Metrics.IncrementBannerClicks("")
	if s.Analytics != nil {
		go func() {
			bgCtx, cancel := withTimeout(context.Background(), s.RequestTimeout)
			defer cancel()
			_ = s.Analytics.RecordBannerClick(bgCtx, id, class.ipAddr)
		}()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func randSeed() int64 {
	return timeNow().UnixNano()
}
