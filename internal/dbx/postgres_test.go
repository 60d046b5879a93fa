package dbx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// requires a live Postgres instance; set LINKGATE_TEST_POSTGRES_DSN to run.
func testPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("LINKGATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LINKGATE_TEST_POSTGRES_DSN not set")
	}
	pg, err := InitPostgres(dsn, 5, 2, 30*time.Minute, 5*time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })
	return pg
}

func TestInitPostgres_EnsuresSchemaAndPings(t *testing.T) {
	pg := testPostgres(t)
	require.True(t, pg.Healthy(context.Background()))

	var count int
	err := pg.DB.QueryRowContext(context.Background(),
		`SELECT count(*) FROM information_schema.tables WHERE table_name = 'links'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestPostgres_Healthy_NilSafe(t *testing.T) {
	var pg *Postgres
	require.False(t, pg.Healthy(context.Background()))
	require.NoError(t, pg.Close())
}
