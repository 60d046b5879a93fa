package analytics

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSN_ReturnsNilMirror(t *testing.T) {
	m, err := Init("")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestMirror_NilReceiver_ReturnsErrUnavailable(t *testing.T) {
	var m *Mirror
	ctx := context.Background()

	require.ErrorIs(t, m.RecordClick(ctx, "flash50", "1.1.1.1", "mobile", "VN", true, ""), ErrUnavailable)
	require.ErrorIs(t, m.RecordBannerImpression(ctx, 1, "sticky_bottom"), ErrUnavailable)
	require.ErrorIs(t, m.RecordBannerClick(ctx, 1, "1.1.1.1"), ErrUnavailable)
	m.Close()
}

// requires a live ClickHouse instance; set LINKGATE_TEST_CLICKHOUSE_DSN to run.
func testMirror(t *testing.T) *Mirror {
	t.Helper()
	dsn := os.Getenv("LINKGATE_TEST_CLICKHOUSE_DSN")
	if dsn == "" {
		t.Skip("LINKGATE_TEST_CLICKHOUSE_DSN not set")
	}
	m, err := Init(dsn)
	require.NoError(t, err)
	require.NotNil(t, m)
	t.Cleanup(m.Close)
	return m
}

func TestMirror_RecordClick_Succeeds(t *testing.T) {
	m := testMirror(t)
	require.NoError(t, m.RecordClick(context.Background(), "flash50", "1.1.1.1", "mobile", "VN", true, ""))
}

func TestMirror_RecordBannerImpressionAndClick_Succeed(t *testing.T) {
	m := testMirror(t)
	ctx := context.Background()
	require.NoError(t, m.RecordBannerImpression(ctx, 42, "sticky_bottom"))
	require.NoError(t, m.RecordBannerClick(ctx, 42, "1.1.1.1"))
}
