// Package dbx wires the gateway's persistence connections: Postgres (the
// authoritative store for links, banners, and click logs) and an optional
// Redis connection backing the click-recorder queue. Grounded on the
// teacher's internal/db/postgres.go (otelsql-instrumented connection pool,
// schema-on-boot) and internal/db/redis.go (redisotel-instrumented client).
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// Postgres wraps *sql.DB for the link/banner/click-log schema.
type Postgres struct {
	DB *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS links (
	id SERIAL PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ,
	target_url TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	expires_at TIMESTAMPTZ,
	total_clicks BIGINT NOT NULL DEFAULT 0,
	valid_clicks BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_links_slug ON links (slug);

CREATE TABLE IF NOT EXISTS click_logs (
	id BIGSERIAL PRIMARY KEY,
	slug TEXT NOT NULL,
	ip TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	referer TEXT NOT NULL DEFAULT '',
	device TEXT NOT NULL DEFAULT '',
	valid BOOLEAN NOT NULL,
	invalid_reason TEXT NOT NULL DEFAULT '',
	at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_click_logs_slug ON click_logs (slug);

CREATE TABLE IF NOT EXISTS banners (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	mobile_image_url TEXT NOT NULL DEFAULT '',
	alt_text TEXT NOT NULL DEFAULT '',
	target_slug TEXT NOT NULL DEFAULT '',
	target_url TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT true,
	start_at TIMESTAMPTZ,
	end_at TIMESTAMPTZ,
	device_constraint TEXT NOT NULL DEFAULT 'any',
	target_articles TEXT[] NOT NULL DEFAULT '{}',
	target_categories TEXT[] NOT NULL DEFAULT '{}',
	weight INTEGER NOT NULL DEFAULT 1,
	priority INTEGER NOT NULL DEFAULT 100,
	display_width_percent INTEGER NOT NULL DEFAULT 100,
	show_delay_seconds INTEGER NOT NULL DEFAULT 0,
	auto_hide_after_ms INTEGER NOT NULL DEFAULT 0,
	dismissible BOOLEAN NOT NULL DEFAULT true,
	impressions BIGINT NOT NULL DEFAULT 0,
	clicks BIGINT NOT NULL DEFAULT 0,
	unique_clicks BIGINT NOT NULL DEFAULT 0,
	clicked_ips TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_banners_kind_active ON banners (kind, active);
`

// InitPostgres opens a connection pool instrumented with otelsql (exactly as
// the teacher's internal/db/postgres.go does), applies the pool-size knobs,
// and ensures the schema above exists.
func InitPostgres(dsn string, maxOpen, maxIdle int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	db, err := otelsql.Open("postgres", dsn, otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	zap.L().Info("connected to postgres")

	return &Postgres{DB: db}, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	return p.DB.Close()
}

// Healthy reports whether the database currently responds to a ping.
func (p *Postgres) Healthy(ctx context.Context) bool {
	if p == nil || p.DB == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return p.DB.PingContext(ctx) == nil
}
