package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeecarter/heart-readings-server/reading"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisReadingStore) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewRedisReadingStoreWithClient(client, "test:")
	t.Cleanup(func() { store.Close() })
	return mr, store
}

func TestRedisReadingStore_StoreListGet(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	notes := "After dinner"
	later := time.Date(2023, 7, 14, 19, 15, 0, 0, time.UTC)
	earlier := time.Date(2023, 7, 12, 9, 45, 0, 0, time.UTC)

	require.NoError(t, store.Store(ctx, []*reading.Reading{
		{ID: "r2", Date: later, HeartRate: 78, ECGType: reading.ECGNormal, Systolic: 124, Diastolic: 82, Notes: &notes},
		{ID: "r4", Date: earlier, HeartRate: 68, ECGType: reading.ECGNormal, Systolic: 118, Diastolic: 79},
	}))
	require.NoError(t, store.Store(ctx, []*reading.Reading{
		{ID: "r4", Date: earlier, HeartRate: 69, ECGType: reading.ECGNormal, Systolic: 118, Diastolic: 79},
	}))

	assert.True(t, mr.Exists("test:readings"))

	rs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "r4", rs[0].ID)
	assert.Equal(t, 69, rs[0].HeartRate)
	assert.Equal(t, "r2", rs[1].ID)
	assert.Equal(t, "After dinner", rs[1].NoteText())

	r, err := store.Get(ctx, "r2")
	require.NoError(t, err)
	assert.True(t, later.Equal(r.Date))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, reading.ErrNotFound)
}

func TestRedisReadingStore_EmptyStoreIsNoop(t *testing.T) {
	mr, store := setupTestRedis(t)
	require.NoError(t, store.Store(context.Background(), nil))
	assert.False(t, mr.Exists("test:readings"))

	rs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rs)
}
