package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeecarter/heart-readings-server/reading"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *PostgresReadingStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, newPostgresReadingStore(db, "")
}

func TestStore_Upserts(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO readings .* ON CONFLICT \(id\) DO UPDATE`).
		ExpectExec().
		WithArgs("r2", sqlmock.AnyArg(), -7*60*60, 78, "normal", 124, 82, "After dinner").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	notes := "After dinner"
	err := store.Store(context.Background(), []*reading.Reading{
		{ID: "r2", Date: time.Date(2023, 7, 14, 19, 15, 0, 0, time.FixedZone("PDT", -7*60*60)), HeartRate: 78, ECGType: reading.ECGNormal, Systolic: 124, Diastolic: 82, Notes: &notes},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AndGet(t *testing.T) {
	mock, store := setupMockDB(t)
	columns := []string{"id", "date", "date_offset", "heart_rate", "ecg_type", "systolic", "diastolic", "notes"}
	d := time.Date(2023, 7, 13, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM readings ORDER BY date`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("r3", d, 0, 88, "sinus_tachycardia", 130, 85, "After exercise"))
	mock.ExpectQuery(`SELECT .* FROM readings WHERE id = \$1`).
		WithArgs("r3").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("r3", d, 0, 88, "sinus_tachycardia", 130, 85, nil))
	mock.ExpectQuery(`SELECT .* FROM readings WHERE id = \$1`).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(columns))

	rs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, reading.ECGSinusTachycardia, rs[0].ECGType)
	assert.Equal(t, "After exercise", rs[0].NoteText())

	r, err := store.Get(context.Background(), "r3")
	require.NoError(t, err)
	assert.Nil(t, r.Notes)

	_, err = store.Get(context.Background(), "gone")
	assert.ErrorIs(t, err, reading.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_RestoresUTCOffset(t *testing.T) {
	mock, store := setupMockDB(t)
	columns := []string{"id", "date", "date_offset", "heart_rate", "ecg_type", "systolic", "diastolic", "notes"}

	// 2023-07-15 20:00 -07:00 comes back from TIMESTAMPTZ as a UTC instant.
	utc := time.Date(2023, 7, 16, 3, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM readings WHERE id = \$1`).
		WithArgs("late").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("late", utc, -7*60*60, 70, "normal", 118, 76, nil))

	r, err := store.Get(context.Background(), "late")
	require.NoError(t, err)
	assert.True(t, utc.Equal(r.Date))
	assert.Equal(t, "July 15th, 2023", reading.FormatDate(r.Date))

	matched, err := reading.Query([]*reading.Reading{r}, "july 15th", reading.DefaultSortSpec())
	require.NoError(t, err)
	assert.Len(t, matched, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
