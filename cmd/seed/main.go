// Command seed populates a linkgate Postgres database with fake links and
// banners for local development. Grounded on the teacher's
// tools/fake_data/main.go: flag-driven counts, a single seeded *rand.Rand,
// and direct INSERT calls (ON CONFLICT (slug) DO NOTHING for links) against
// the same *sql.DB the server uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/duongmedia/linkgate/internal/config"
	"github.com/duongmedia/linkgate/internal/dbx"
	"github.com/duongmedia/linkgate/internal/models"
	"github.com/duongmedia/linkgate/internal/observability"
)

var (
	linkCount   = flag.Int("links", 20, "number of fake links to insert")
	bannerCount = flag.Int("banners", 10, "number of fake banners to insert")
	seed        = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
)

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	pg, err := dbx.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer func() { _ = pg.Close() }()

	r := rand.New(rand.NewSource(*seed))

	for i := 0; i < *linkCount; i++ {
		link := randomLink(r, i)
		if err := insertLink(pg, link); err != nil {
			logger.Fatal("insert link", zap.Error(err), zap.String("slug", link.Slug))
		}
	}
	fmt.Printf("inserted %d links\n", *linkCount)

	for i := 0; i < *bannerCount; i++ {
		banner := randomBanner(r, i)
		if err := insertBanner(pg, banner); err != nil {
			logger.Fatal("insert banner", zap.Error(err), zap.String("name", banner.Name))
		}
	}
	fmt.Printf("inserted %d banners\n", *bannerCount)
}

func insertLink(pg *dbx.Postgres, l models.Link) error {
	_, err := pg.DB.ExecContext(context.Background(), `
		INSERT INTO links (slug, title, description, image_url, author, published_at, target_url, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (slug) DO NOTHING`,
		l.Slug, l.Title, l.Description, l.ImageURL, l.Author, l.PublishedAt, l.TargetURL, l.Active)
	return err
}

func insertBanner(pg *dbx.Postgres, b models.Banner) error {
	_, err := pg.DB.ExecContext(context.Background(), `
		INSERT INTO banners (name, image_url, alt_text, target_url, kind, active, device_constraint,
		                      target_articles, target_categories, weight, priority,
		                      display_width_percent, show_delay_seconds, dismissible)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.Name, b.ImageURL, b.AltText, b.TargetURL, string(b.Kind), b.Active, string(b.DeviceConstraint),
		pq.Array(b.TargetArticles), pq.Array(b.TargetCategories), b.Weight, b.Priority,
		b.DisplayWidthPercent, b.ShowDelaySeconds, b.Dismissible)
	return err
}

var dealAdjectives = []string{"Flash", "Mega", "Siêu", "Cực Sốc", "Độc Quyền"}
var dealNouns = []string{"Sale 50%", "Giảm Giá", "Ưu Đãi", "Deal Hot", "Khuyến Mãi"}

func randomLink(r *rand.Rand, i int) models.Link {
	title := fmt.Sprintf("%s %s #%d", dealAdjectives[r.Intn(len(dealAdjectives))], dealNouns[r.Intn(len(dealNouns))], i)
	return models.Link{
		Slug:        fmt.Sprintf("deal-%d-%d", i, r.Intn(100000)),
		Title:       title,
		Description: "Ưu đãi có hạn, số lượng giới hạn.",
		ImageURL:    fmt.Sprintf("https://img.example.com/deal-%d.jpg", i),
		Author:      "editorial",
		PublishedAt: time.Now().Add(-time.Duration(r.Intn(72)) * time.Hour),
		TargetURL:   fmt.Sprintf("https://shopee.vn/product-%d?affid=demo", r.Intn(1000000)),
		Active:      true,
	}
}

var bannerKinds = []models.BannerKind{
	models.BannerKindStickyBottom, models.BannerKindCenterPopup, models.BannerKindSidebar,
	models.BannerKindInline, models.BannerKindHeader,
}
var deviceConstraints = []models.DeviceConstraint{models.DeviceAny, models.DeviceMobile, models.DeviceDesktop}

func randomBanner(r *rand.Rand, i int) models.Banner {
	return models.Banner{
		Name:                fmt.Sprintf("Banner %d", i),
		ImageURL:            fmt.Sprintf("https://img.example.com/banner-%d.jpg", i),
		AltText:             fmt.Sprintf("Quảng cáo %d", i),
		TargetURL:           fmt.Sprintf("https://shopee.vn/campaign-%d?affid=demo", r.Intn(1000000)),
		Kind:                bannerKinds[r.Intn(len(bannerKinds))],
		Active:              true,
		DeviceConstraint:    deviceConstraints[r.Intn(len(deviceConstraints))],
		Weight:              r.Intn(10) + 1,
		Priority:            r.Intn(5) + 1,
		DisplayWidthPercent: 100,
		ShowDelaySeconds:    r.Intn(10),
		Dismissible:         true,
	}
}
