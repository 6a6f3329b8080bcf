package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joeecarter/heart-readings-server/reading"
)

func TestReadingsXLSX(t *testing.T) {
	notes := "After exercise"
	readings := []*reading.Reading{
		{ID: "r3", Date: time.Date(2023, 7, 13, 15, 0, 0, 0, time.UTC), HeartRate: 88, ECGType: reading.ECGSinusTachycardia, Systolic: 130, Diastolic: 85, Notes: &notes},
		{ID: "r4", Date: time.Date(2023, 7, 12, 9, 45, 0, 0, time.UTC), HeartRate: 68, ECGType: reading.ECGNormal, Systolic: 118, Diastolic: 79},
	}

	b, err := ReadingsXLSX(readings)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Heart Rate (bpm)", rows[0][2])
	assert.Equal(t, []string{"July 13th, 2023", "3:00 PM", "88", "Sinus Tachycardia", "130", "85", "High", "After exercise", "r3"}, rows[1])
	assert.Equal(t, "Normal", rows[2][3])
	assert.Equal(t, "Normal", rows[2][6])
}

func TestReadingsXLSX_Empty(t *testing.T) {
	b, err := ReadingsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
