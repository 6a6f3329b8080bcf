package reading_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeecarter/heart-readings-server/reading"
)

func TestECGType_LabelBadgeClass(t *testing.T) {
	tests := []struct {
		raw   reading.ECGType
		label string
		badge reading.Badge
		class reading.ECGClass
	}{
		{reading.ECGNormal, "Normal", reading.BadgeDefault, reading.ECGClassNormal},
		{reading.ECGSinusTachycardia, "Sinus Tachycardia", reading.BadgeSecondary, reading.ECGClassSinusTachycardia},
		{reading.ECGSinusBradycardia, "Sinus Bradycardia", reading.BadgeSecondary, reading.ECGClassSinusBradycardia},
		{reading.ECGAFib, "Afib", reading.BadgeDestructive, reading.ECGClassAFib},
		{reading.ECGPVC, "Pvc", reading.BadgeOutline, reading.ECGClassPVC},
		{reading.ECGOther, "Other", reading.BadgeOutline, reading.ECGClassOther},
		{"junctional_rhythm", "Junctional Rhythm", reading.BadgeOutline, reading.ECGClassUnknown},
		{"", "", reading.BadgeOutline, reading.ECGClassUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.label, tt.raw.Label())
			assert.Equal(t, tt.badge, tt.raw.Badge())
			assert.Equal(t, tt.class, tt.raw.Class())
			assert.Equal(t, tt.class != reading.ECGClassUnknown, tt.raw.Known())
		})
	}
}

func TestReading_BloodPressure(t *testing.T) {
	tests := []struct {
		sys, dia int
		want     reading.BloodPressureCategory
	}{
		{115, 75, reading.BloodPressureNormal},
		{118, 80, reading.BloodPressureElevated},
		{124, 82, reading.BloodPressureElevated},
		{130, 80, reading.BloodPressureHigh},
		{125, 85, reading.BloodPressureHigh},
	}
	for _, tt := range tests {
		r := &reading.Reading{Systolic: tt.sys, Diastolic: tt.dia}
		assert.Equal(t, tt.want, r.BloodPressure(), "%d/%d", tt.sys, tt.dia)
	}
}

func TestReading_Validate(t *testing.T) {
	now := time.Date(2023, 7, 15, 8, 30, 0, 0, time.UTC)

	require.NoError(t, reading.NewEntry(now).Validate())

	r := &reading.Reading{HeartRate: 12, ECGType: "bogus", Systolic: 300, Diastolic: 0}
	err := r.Validate()
	require.Error(t, err)

	var verr *reading.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []reading.FieldError{
		{Field: "date", Message: "Required"},
		{Field: "heartRate", Message: "Too low"},
		{Field: "ecgType", Message: "Unknown type"},
		{Field: "systolic", Message: "Too high"},
		{Field: "diastolic", Message: "Required"},
	}, verr.Fields)
}

func TestSortSpec_Toggle(t *testing.T) {
	spec := reading.DefaultSortSpec()
	assert.Equal(t, reading.SortSpec{Field: reading.SortByDate, Direction: reading.Descending}, spec)

	spec = spec.Toggle(reading.SortByDate)
	assert.Equal(t, reading.Ascending, spec.Direction)

	spec = spec.Toggle(reading.SortByHeartRate)
	assert.Equal(t, reading.SortSpec{Field: reading.SortByHeartRate, Direction: reading.Descending}, spec)

	spec = spec.Toggle(reading.SortByHeartRate)
	assert.Equal(t, reading.Ascending, spec.Direction)
}

func TestParseSortSpec(t *testing.T) {
	spec, err := reading.ParseSortSpec("systolic", "asc")
	require.NoError(t, err)
	assert.Equal(t, reading.SortBySystolic, spec.Field)

	_, err = reading.ParseSortSpec("bogus", "asc")
	assert.ErrorIs(t, err, reading.ErrInvalidArgument)

	_, err = reading.ParseSortSpec("date", "DESC")
	assert.ErrorIs(t, err, reading.ErrInvalidArgument)
}

func TestQuickFilter(t *testing.T) {
	term, ok := reading.QuickFilter("sinus")
	assert.True(t, ok)
	assert.Equal(t, "sinus", term)

	term, ok = reading.QuickFilter("clear")
	assert.True(t, ok)
	assert.Empty(t, term)

	_, ok = reading.QuickFilter("pvc")
	assert.False(t, ok)
}
