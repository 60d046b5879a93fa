package linkstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duongmedia/linkgate/internal/dbx"
	"github.com/duongmedia/linkgate/internal/models"
)

// requires a live Postgres instance; set LINKGATE_TEST_POSTGRES_DSN to run.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LINKGATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LINKGATE_TEST_POSTGRES_DSN not set")
	}
	pg, err := dbx.InitPostgres(dsn, 5, 2, 30*time.Minute, 5*time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })
	return New(pg)
}

func TestStore_GetBySlug_NotFound_ReturnsNilNil(t *testing.T) {
	s := testStore(t)
	link, err := s.GetBySlug(context.Background(), "does-not-exist-xyz")
	require.NoError(t, err)
	require.Nil(t, link)
}

func TestStore_RecordClick_CountersMatchLogEntries(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slug := "flash50-test"
	_, err := s.pg.DB.ExecContext(ctx, `
		INSERT INTO links (slug, title, target_url, active)
		VALUES ($1, 'Flash Sale', 'https://shopee.vn/x', true)
		ON CONFLICT (slug) DO UPDATE SET total_clicks = 0, valid_clicks = 0`, slug)
	require.NoError(t, err)

	require.NoError(t, s.RecordClick(ctx, models.ClickRecord{Slug: slug, IP: "1.1.1.1", Valid: true, At: time.Now()}))
	require.NoError(t, s.RecordClick(ctx, models.ClickRecord{Slug: slug, IP: "35.190.0.1", Valid: false, InvalidReason: "suspicious_isp", At: time.Now()}))

	link, err := s.GetBySlug(ctx, slug)
	require.NoError(t, err)
	require.NotNil(t, link)
	require.EqualValues(t, 2, link.TotalClicks)
	require.EqualValues(t, 1, link.ValidClicks)
}
