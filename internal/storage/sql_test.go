package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) (*SQLStorage, *fakeClock) {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := newFakeClock()
	s.now = clock.Now
	return s, clock
}

func TestSQLStorage_PutGetClear(t *testing.T) {
	ctx := context.Background()
	s, clock := setupTestStore(t)

	state, err := s.Get(ctx, "tg:42")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, s.Put(ctx, "tg:42", models.ActionReformat))

	state, err = s.Get(ctx, "tg:42")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.ActionReformat, state.Action)
	assert.True(t, state.CreatedAt.Equal(clock.Now()))

	require.NoError(t, s.Clear(ctx, "tg:42"))
	require.NoError(t, s.Clear(ctx, "tg:42"))

	state, err = s.Get(ctx, "tg:42")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSQLStorage_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s, clock := setupTestStore(t)

	require.NoError(t, s.Put(ctx, "tg:42", models.ActionReformat))
	clock.Advance(3 * time.Minute)
	require.NoError(t, s.Put(ctx, "tg:42", models.ActionReformat))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM pending_states`).Scan(&count))
	assert.Equal(t, 1, count)

	state, err := s.Get(ctx, "tg:42")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.CreatedAt.Equal(clock.Now()))
}

func TestSQLStorage_ExpiredIsAbsentAndDeleted(t *testing.T) {
	ctx := context.Background()
	s, clock := setupTestStore(t)

	require.NoError(t, s.Put(ctx, "tg:42", models.ActionReformat))
	clock.Advance(PendingTTL)

	state, err := s.Get(ctx, "tg:42")
	require.NoError(t, err)
	assert.Nil(t, state)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM pending_states`).Scan(&count))
	assert.Zero(t, count, "expired record should be deleted on read")
}

func TestSQLStorage_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	s, clock := setupTestStore(t)

	require.NoError(t, s.Put(ctx, "old", models.ActionReformat))
	clock.Advance(PendingTTL + time.Minute)
	require.NoError(t, s.Put(ctx, "fresh", models.ActionReformat))

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	state, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, state)
}

func TestSQLStorage_Rebind(t *testing.T) {
	pg := &SQLStorage{dialect: dialectPostgres}
	lite := &SQLStorage{dialect: dialectSQLite}

	q := `UPDATE t SET a = ? WHERE b = ? AND c = ?`
	assert.Equal(t, `UPDATE t SET a = $1 WHERE b = $2 AND c = $3`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}
