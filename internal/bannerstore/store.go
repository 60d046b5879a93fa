package bannerstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/duongmedia/linkgate/internal/dbx"
	"github.com/duongmedia/linkgate/internal/models"
)

// clickedIPCap is the bound on the clickedIpSet FIFO window, per spec.md
// §4.6: "bounded at 10,000 entries; on overflow, drop the oldest half."
const clickedIPCap = 10000

// ErrNotFound is returned when a banner id has no matching row.
var ErrNotFound = errors.New("bannerstore: not found")

// ErrTransient wraps a retryable persistence error.
type ErrTransient struct{ Cause error }

func (e *ErrTransient) Error() string { return fmt.Sprintf("bannerstore: transient: %v", e.Cause) }
func (e *ErrTransient) Unwrap() error  { return e.Cause }

// Store is the persistence adapter named in spec.md §6: listActiveBanners,
// updateBannerImpression, updateBannerClick.
type Store struct {
	pg *dbx.Postgres
}

// New constructs a Store bound to a Postgres connection.
func New(pg *dbx.Postgres) *Store {
	return &Store{pg: pg}
}

// ListActiveBanners returns every banner row of the given kind whose active
// flag and start/end window cover now. Targeting filters (device, article,
// category) are deliberately NOT applied here — they run in-process in
// bannerstore.ApplyTargeting, per spec.md §9's fix for the source's
// double-$or bug.
func (s *Store) ListActiveBanners(ctx context.Context, kind models.BannerKind, now time.Time) ([]models.Banner, error) {
	rows, err := s.pg.DB.QueryContext(ctx, `
		SELECT id, name, image_url, mobile_image_url, alt_text, target_slug, target_url, kind,
		       active, start_at, end_at, device_constraint, target_articles, target_categories,
		       weight, priority, display_width_percent, show_delay_seconds, auto_hide_after_ms,
		       dismissible, impressions, clicks, unique_clicks
		FROM banners
		WHERE kind = $1 AND active = true
		  AND (start_at IS NULL OR start_at <= $2)
		  AND (end_at IS NULL OR end_at >= $2)`, string(kind), now)
	if err != nil {
		return nil, &ErrTransient{Cause: err}
	}
	defer func() { _ = rows.Close() }()

	var banners []models.Banner
	for rows.Next() {
		var b models.Banner
		var startAt, endAt sql.NullTime
		var kindStr, deviceConstraint string

		if err := rows.Scan(&b.ID, &b.Name, &b.ImageURL, &b.MobileImageURL, &b.AltText,
			&b.TargetSlug, &b.TargetURL, &kindStr, &b.Active, &startAt, &endAt,
			&deviceConstraint, pq.Array(&b.TargetArticles), pq.Array(&b.TargetCategories),
			&b.Weight, &b.Priority, &b.DisplayWidthPercent, &b.ShowDelaySeconds,
			&b.AutoHideAfterMs, &b.Dismissible, &b.Impressions, &b.Clicks, &b.UniqueClicks); err != nil {
			return nil, &ErrTransient{Cause: err}
		}

		b.Kind = models.BannerKind(kindStr)
		b.DeviceConstraint = models.DeviceConstraint(deviceConstraint)
		if startAt.Valid {
			t := startAt.Time
			b.StartAt = &t
		}
		if endAt.Valid {
			t := endAt.Time
			b.EndAt = &t
		}
		banners = append(banners, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrTransient{Cause: err}
	}

	return banners, nil
}

// RecordImpression increments impressions atomically at the banner-row
// level, per spec.md §4.6/§5.
func (s *Store) RecordImpression(ctx context.Context, id int64) error {
	res, err := s.pg.DB.ExecContext(ctx, `UPDATE banners SET impressions = impressions + 1 WHERE id = $1`, id)
	if err != nil {
		return &ErrTransient{Cause: err}
	}
	return checkAffected(res)
}

// RecordClick increments clicks unconditionally and, if ip has not been seen
// before, adds it to the bounded clickedIpSet and increments uniqueClicks.
// The read-modify-write of clickedIpSet happens inside a single
// transaction with SELECT ... FOR UPDATE so concurrent callers serialize on
// the row rather than losing updates, per spec.md §4.6's atomicity
// requirement.
func (s *Store) RecordClick(ctx context.Context, id int64, ip string) error {
	tx, err := s.pg.DB.BeginTx(ctx, nil)
	if err != nil {
		return &ErrTransient{Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	var clickedIPs []string
	row := tx.QueryRowContext(ctx, `SELECT clicked_ips FROM banners WHERE id = $1 FOR UPDATE`, id)
	if err := row.Scan(pq.Array(&clickedIPs)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &ErrTransient{Cause: err}
	}

	alreadySeen := contains(clickedIPs, ip)
	if !alreadySeen {
		clickedIPs = append(clickedIPs, ip)
		if len(clickedIPs) > clickedIPCap {
			// drop the oldest half (FIFO eviction); uniqueClicks itself is
			// never decremented, the set is just a dedup window.
			half := len(clickedIPs) / 2
			clickedIPs = clickedIPs[half:]
		}
	}

	uniqueIncrement := 0
	if !alreadySeen {
		uniqueIncrement = 1
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE banners
		SET clicks = clicks + 1,
		    unique_clicks = unique_clicks + $2,
		    clicked_ips = $3
		WHERE id = $1`, id, uniqueIncrement, pq.Array(clickedIPs))
	if err != nil {
		return &ErrTransient{Cause: err}
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &ErrTransient{Cause: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var t *ErrTransient
	return errors.As(err, &t)
}
