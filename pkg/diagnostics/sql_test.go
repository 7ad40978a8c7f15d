package diagnostics_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/manzanit0/storefront/pkg/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newRecorder(t *testing.T, clock clockwork.Clock) *diagnostics.SQLRecorder {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "diagnostics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r := diagnostics.NewSQLRecorder(db, "sqlite", clock)
	require.NoError(t, r.Migrate(context.Background()))

	return r
}

func TestSQLRecorder_RecordAndRecent(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	r := newRecorder(t, clock)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "catalog", errors.New("fetch products: connection refused")))
	clock.Advance(time.Minute)
	require.NoError(t, r.Record(ctx, "catalog", errors.New("fetch products: unexpected response: (502)")))

	got, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "fetch products: unexpected response: (502)", got[0].Message)
	assert.True(t, start.Add(time.Minute).Equal(got[0].OccurredAt), "got %s", got[0].OccurredAt)
	assert.Equal(t, "fetch products: connection refused", got[1].Message)
	assert.Equal(t, "catalog", got[1].Flow)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestSQLRecorder_RecentHonoursLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newRecorder(t, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(ctx, "catalog", errors.New("boom")))
		clock.Advance(time.Second)
	}

	got, err := r.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLRecorder_MigrateIsIdempotent(t *testing.T) {
	r := newRecorder(t, nil)

	assert.NoError(t, r.Migrate(context.Background()))
}

func TestLogRecorder(t *testing.T) {
	assert.NoError(t, diagnostics.LogRecorder{}.Record(context.Background(), "catalog", errors.New("boom")))
}
