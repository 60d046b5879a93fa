// Package linkstore implements the Link Store (spec.md §4.5): slug lookup
// and atomic click recording against the Postgres-backed links/click_logs
// tables. Grounded on the teacher's internal/db/postgres.go query style
// (sql.NullX scan patterns, parameterized statements).
package linkstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/duongmedia/linkgate/internal/dbx"
	"github.com/duongmedia/linkgate/internal/models"
)

// ErrNotFound is returned by nothing in this package directly — GetBySlug
// returns (nil, nil) for a missing link per spec.md §4.5 ("Non-existent
// returns null, not an error"). It is exported for symmetry with
// bannerstore and for callers that want a typed sentinel for "not found
// after an ID lookup" in adjacent admin tooling.
var ErrNotFound = errors.New("link: not found")

// ErrTransient wraps a database error that callers should treat as
// retryable, per spec.md §7's Transient error category.
type ErrTransient struct{ Cause error }

func (e *ErrTransient) Error() string { return fmt.Sprintf("link store: transient: %v", e.Cause) }
func (e *ErrTransient) Unwrap() error { return e.Cause }

// Store is the persistence adapter named in spec.md §6: findLinkBySlug and
// updateLinkOnClick.
type Store struct {
	pg *dbx.Postgres
}

// New constructs a Store bound to a Postgres connection.
func New(pg *dbx.Postgres) *Store {
	return &Store{pg: pg}
}

// GetBySlug looks up a link by its case-folded slug. Returns (nil, nil) when
// no such link exists.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))

	row := s.pg.DB.QueryRowContext(ctx, `
		SELECT id, slug, title, description, image_url, author, published_at,
		       target_url, active, expires_at, total_clicks, valid_clicks
		FROM links WHERE slug = $1`, slug)

	var link models.Link
	var publishedAt sql.NullTime
	var expiresAt sql.NullTime

	err := row.Scan(&link.ID, &link.Slug, &link.Title, &link.Description, &link.ImageURL,
		&link.Author, &publishedAt, &link.TargetURL, &link.Active, &expiresAt,
		&link.TotalClicks, &link.ValidClicks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &ErrTransient{Cause: err}
	}

	if publishedAt.Valid {
		link.PublishedAt = publishedAt.Time
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		link.ExpiresAt = &t
	}

	return &link, nil
}

// RecordClick appends a click-log row and increments totalClicks (and, if
// the record is valid, validClicks) in a single transaction, satisfying
// spec.md §4.5's "atomic at the row level" requirement: counters and the
// log append succeed or fail together.
func (s *Store) RecordClick(ctx context.Context, record models.ClickRecord) error {
	tx, err := s.pg.DB.BeginTx(ctx, nil)
	if err != nil {
		return &ErrTransient{Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO click_logs (slug, ip, user_agent, referer, device, valid, invalid_reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.Slug, record.IP, record.UserAgent, record.Referer, record.Device,
		record.Valid, record.InvalidReason, record.At); err != nil {
		return &ErrTransient{Cause: err}
	}

	validIncrement := 0
	if record.Valid {
		validIncrement = 1
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE links SET total_clicks = total_clicks + 1, valid_clicks = valid_clicks + $2
		WHERE slug = $1`, record.Slug, validIncrement)
	if err != nil {
		return &ErrTransient{Cause: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// The link may have been deleted between lookup and record; the
		// click-log row still exists for audit purposes, but there is no
		// counter to bump. Not an error: this mirrors spec.md §4.5's
		// "transport/DB errors propagate as retryable errors" carve-out,
		// which does not cover a vanished row.
		return tx.Commit()
	}

	return tx.Commit()
}

// IsTransient reports whether err should be retried by the Click Recorder.
func IsTransient(err error) bool {
	var t *ErrTransient
	return errors.As(err, &t)
}
