package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeecarter/heart-readings-server/reading"
)

var now = time.Date(2023, 7, 15, 10, 30, 0, 0, time.UTC)

func at(d time.Duration, hr int, ecg reading.ECGType) *reading.Reading {
	return &reading.Reading{ID: ecg.Label(), Date: now.Add(-d), HeartRate: hr, ECGType: ecg, Systolic: 120, Diastolic: 80}
}

func TestSummarize(t *testing.T) {
	day := 24 * time.Hour
	readings := []*reading.Reading{
		at(2*time.Hour, 72, reading.ECGNormal),
		at(3*day, 80, reading.ECGSinusTachycardia),
		at(9*day, 70, reading.ECGSinusBradycardia),
		at(10*day, 80, reading.ECGAFib),
		nil,
	}

	s := Summarize(readings, RangeAll, now)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 76, s.AverageHeartRate)
	assert.Equal(t, 238, s.MonitoringHours)

	require.NotNil(t, s.Latest)
	assert.Equal(t, "Normal", s.Latest.ECGLabel)
	assert.Equal(t, "2 hours ago", s.Latest.Ago)
	assert.Equal(t, reading.BloodPressureElevated, s.Latest.BloodPressure)

	// This week averages 76, last week 75: up 1%, which is not an improvement.
	require.NotNil(t, s.Trend)
	assert.Equal(t, 1, s.Trend.Value)
	assert.False(t, s.Trend.IsPositive)
	assert.Equal(t, "from last week", s.Trend.Label)
}

func TestSummarize_Range(t *testing.T) {
	readings := []*reading.Reading{
		at(2*time.Hour, 72, reading.ECGNormal),
		at(30*time.Hour, 90, reading.ECGSinusTachycardia),
		at(-time.Hour, 100, reading.ECGOther),
	}

	s := Summarize(readings, RangeDay, now)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 72, s.AverageHeartRate)
	assert.Nil(t, s.Trend, "no readings in the previous week")
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, RangeWeek, now)
	assert.Zero(t, s.Count)
	assert.Nil(t, s.Latest)
	assert.Nil(t, s.Trend)
}

func TestParseRange(t *testing.T) {
	for _, s := range []string{"", "24h", "7d", "30d", "90d"} {
		r, err := ParseRange(s)
		require.NoError(t, err)
		assert.Equal(t, Range(s), r)
	}
	_, err := ParseRange("1y")
	assert.ErrorIs(t, err, reading.ErrInvalidArgument)
}

func TestAgo(t *testing.T) {
	assert.Equal(t, "just now", Ago(10*time.Second))
	assert.Equal(t, "1 minute ago", Ago(time.Minute))
	assert.Equal(t, "5 minutes ago", Ago(5*time.Minute+time.Second))
	assert.Equal(t, "1 hour ago", Ago(90*time.Minute))
	assert.Equal(t, "3 days ago", Ago(73*time.Hour))
}
