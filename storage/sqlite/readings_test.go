package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeecarter/heart-readings-server/reading"
)

func openStore(t *testing.T) *SQLiteReadingStore {
	t.Helper()
	store, err := NewSQLiteReadingStore(context.Background(), SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "nested", "readings.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteReadingStore_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	notes := "Before sleep, relaxed"
	d1 := time.Date(2023, 7, 11, 22, 30, 0, 0, time.UTC)
	d2 := time.Date(2023, 7, 15, 8, 30, 0, 0, time.UTC)

	require.NoError(t, store.Store(ctx, []*reading.Reading{
		{ID: "r5", Date: d1, HeartRate: 65, ECGType: reading.ECGSinusBradycardia, Systolic: 115, Diastolic: 75, Notes: &notes},
		{ID: "r1", Date: d2, HeartRate: 72, ECGType: reading.ECGNormal, Systolic: 120, Diastolic: 80},
	}))
	// Same id again must replace, not duplicate.
	require.NoError(t, store.Store(ctx, []*reading.Reading{
		{ID: "r1", Date: d2, HeartRate: 74, ECGType: reading.ECGNormal, Systolic: 121, Diastolic: 80},
	}))

	rs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "r5", rs[0].ID)
	assert.Equal(t, notes, rs[0].NoteText())
	assert.True(t, d1.Equal(rs[0].Date))
	assert.Equal(t, 74, rs[1].HeartRate)
	assert.Nil(t, rs[1].Notes)
}

func TestSQLiteReadingStore_Get(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Store(ctx, []*reading.Reading{
		{ID: "x", Date: time.Now(), HeartRate: 80, ECGType: "something_new"},
	}))

	r, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, reading.ECGType("something_new"), r.ECGType)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, reading.ErrNotFound)
}

func TestSQLiteReadingStore_KeepsUTCOffset(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	pacific := time.FixedZone("PDT", -7*60*60)
	late := time.Date(2023, 7, 15, 20, 0, 0, 0, pacific)
	early := time.Date(2023, 7, 16, 1, 0, 0, 0, time.UTC)
	require.NoError(t, store.Store(ctx, []*reading.Reading{
		{ID: "late", Date: late, HeartRate: 70, ECGType: reading.ECGNormal},
		{ID: "early", Date: early, HeartRate: 71, ECGType: reading.ECGNormal},
	}))

	got, err := store.Get(ctx, "late")
	require.NoError(t, err)
	assert.True(t, late.Equal(got.Date))
	_, offset := got.Date.Zone()
	assert.Equal(t, -7*60*60, offset)
	assert.Equal(t, "July 15th, 2023", reading.FormatDate(got.Date))

	rs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "early", rs[0].ID, "ordered by instant, not by local text")

	matched, err := reading.Query(rs, "july 15th", reading.DefaultSortSpec())
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "late", matched[0].ID)
}
