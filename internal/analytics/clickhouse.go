// Package analytics mirrors click/impression events into ClickHouse
// asynchronously, as an OLAP-friendly sibling to the authoritative Postgres
// counters. Wholly optional: absent CLICKHOUSE_DSN, every method is a no-op
// returning ErrUnavailable. Grounded on the teacher's
// internal/analytics/clickhouse.go (same driver, same
// CREATE-TABLE-IF-NOT-EXISTS-on-connect pattern, same ErrUnavailable
// short-circuit for "not configured").
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

// ErrUnavailable is returned by every method when the analytics mirror is
// not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// Mirror wraps a ClickHouse connection used as an async write-behind log of
// click/impression/redirect events.
type Mirror struct {
	db *sql.DB
}

const createEventsTable = `CREATE TABLE IF NOT EXISTS gateway_events (
	timestamp      DateTime,
	event_type     String,
	slug           String,
	ip             String,
	device         String,
	country        Nullable(String),
	valid          UInt8,
	invalid_reason Nullable(String),
	banner_id      Nullable(Int64),
	banner_kind    Nullable(String)
) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`

// Init connects to ClickHouse and ensures the gateway_events table exists.
// An empty dsn means analytics mirroring is disabled; Init returns
// (nil, nil) in that case.
func Init(dsn string) (*Mirror, error) {
	if dsn == "" {
		return nil, nil
	}

	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createEventsTable); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("connected to clickhouse analytics mirror")
	return &Mirror{db: db}, nil
}

// RecordClick mirrors a landing/redirect click event.
func (m *Mirror) RecordClick(ctx context.Context, slug, ip, device, country string, valid bool, invalidReason string) error {
	if m == nil || m.db == nil {
		return ErrUnavailable
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO gateway_events (timestamp, event_type, slug, ip, device, country, valid, invalid_reason)
		VALUES (?, 'click', ?, ?, ?, ?, ?, ?)`,
		time.Now(), slug, ip, device, nullableString(country), boolToUint8(valid), nullableString(invalidReason))
	if err != nil {
		zap.L().Error("clickhouse insert click failed", zap.Error(err))
		return fmt.Errorf("record click: %w", err)
	}
	return nil
}

// RecordBannerImpression mirrors a banner impression event.
func (m *Mirror) RecordBannerImpression(ctx context.Context, bannerID int64, kind string) error {
	if m == nil || m.db == nil {
		return ErrUnavailable
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO gateway_events (timestamp, event_type, valid, banner_id, banner_kind)
		VALUES (?, 'banner_impression', 1, ?, ?)`, time.Now(), bannerID, kind)
	if err != nil {
		zap.L().Error("clickhouse insert banner impression failed", zap.Error(err))
		return fmt.Errorf("record banner impression: %w", err)
	}
	return nil
}

// RecordBannerClick mirrors a banner click event.
func (m *Mirror) RecordBannerClick(ctx context.Context, bannerID int64, ip string) error {
	if m == nil || m.db == nil {
		return ErrUnavailable
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO gateway_events (timestamp, event_type, ip, valid, banner_id)
		VALUES (?, 'banner_click', ?, 1, ?)`, time.Now(), ip, bannerID)
	if err != nil {
		zap.L().Error("clickhouse insert banner click failed", zap.Error(err))
		return fmt.Errorf("record banner click: %w", err)
	}
	return nil
}

// Close terminates the ClickHouse connection.
func (m *Mirror) Close() {
	if m != nil && m.db != nil {
		if err := m.db.Close(); err != nil {
			zap.L().Warn("clickhouse close", zap.Error(err))
		}
	}
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
