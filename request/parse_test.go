package request

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeecarter/heart-readings-server/reading"
)

const exportJSON = `{
  "data": {
    "readings": [
      {"id": "r1", "date": "2023-07-15 08:30:00 +0000", "heartRate": 72, "ecgType": "normal", "systolic": 120, "diastolic": 80, "notes": "Morning reading, fasting"},
      {"date": "2023-07-12T09:45:00Z", "heartRate": 68, "ecgType": "normal", "systolic": 118, "diastolic": 79}
    ],
    "ecg": [
      {
        "classification": "Atrial Fibrillation",
        "source": "Apple Watch",
        "averageHeartRate": 97.6,
        "start": "2023-07-16 10:00:00 +0000",
        "end": "2023-07-16 10:00:30 +0000",
        "numberOfVoltageMeasurements": 15360,
        "samplingFrequency": 512,
        "voltageMeasurements": [{"date": 1689501600.25, "voltage": 0.00012, "units": "V"}]
      }
    ]
  }
}`

func TestParse_Export(t *testing.T) {
	export, err := Parse([]byte(exportJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, export.TotalReadings())

	rs := export.AllReadings()
	require.Len(t, rs, 3)

	assert.Equal(t, "r1", rs[0].ID)
	assert.Equal(t, time.Date(2023, 7, 15, 8, 30, 0, 0, time.UTC), rs[0].Date.UTC())
	assert.Equal(t, "Morning reading, fasting", rs[0].NoteText())

	assert.NotEmpty(t, rs[1].ID, "entries without an id get a content id")
	assert.Equal(t, time.Date(2023, 7, 12, 9, 45, 0, 0, time.UTC), rs[1].Date.UTC())
	assert.Nil(t, rs[1].Notes)

	ecg := rs[2]
	assert.Equal(t, reading.ECGAFib, ecg.ECGType)
	assert.Equal(t, 98, ecg.HeartRate)
	assert.Zero(t, ecg.Systolic)
	assert.Equal(t, "Atrial Fibrillation ECG from Apple Watch, 15360 samples at 512 Hz", ecg.NoteText())

	assert.Equal(t, ECGID("Apple Watch", time.Date(2023, 7, 16, 10, 0, 0, 0, time.UTC)), ecg.ID)

	v := export.Data.ECG[0].VoltageMeasurements[0]
	assert.Equal(t, int64(1689501600), v.Date.ToTime().Unix())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{"data": {"readings": [{"date": "yesterday"}]}}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestLookupECGType(t *testing.T) {
	assert.Equal(t, reading.ECGNormal, LookupECGType("Sinus Rhythm"))
	assert.Equal(t, reading.ECGSinusTachycardia, LookupECGType("High Heart Rate"))
	assert.Equal(t, reading.ECGSinusBradycardia, LookupECGType("Low Heart Rate"))
	assert.Equal(t, reading.ECGOther, LookupECGType("Inconclusive"))
}

func TestNewExport_RoundTrip(t *testing.T) {
	n := "After dinner"
	in := []*reading.Reading{{
		ID:        "r2",
		Date:      time.Date(2023, 7, 14, 19, 15, 0, 0, time.UTC),
		HeartRate: 78,
		ECGType:   reading.ECGNormal,
		Systolic:  124,
		Diastolic: 82,
		Notes:     &n,
	}}

	b, err := json.Marshal(NewExport(in))
	require.NoError(t, err)

	export, err := Parse(b)
	require.NoError(t, err)
	out := export.AllReadings()
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].ID)
	assert.True(t, in[0].Date.Equal(out[0].Date))
	assert.Equal(t, "After dinner", out[0].NoteText())
}

func TestAllReadings_StableIDs(t *testing.T) {
	first, err := Parse([]byte(exportJSON))
	require.NoError(t, err)
	second, err := Parse([]byte(exportJSON))
	require.NoError(t, err)

	a, b := first.AllReadings(), second.AllReadings()
	require.Len(t, b, len(a))
	for i := range a {
		assert.NotEmpty(t, a[i].ID)
		assert.Equal(t, a[i].ID, b[i].ID)
	}
	assert.NotEqual(t, a[1].ID, a[2].ID)

	// Same instant in another zone is the same recording.
	assert.Equal(t,
		ECGID("Apple Watch", time.Date(2023, 7, 16, 10, 0, 0, 0, time.UTC)),
		ECGID("Apple Watch", time.Date(2023, 7, 16, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))))
	assert.NotEqual(t,
		ECGID("Apple Watch", time.Date(2023, 7, 16, 10, 0, 0, 0, time.UTC)),
		ECGID("iPhone", time.Date(2023, 7, 16, 10, 0, 0, 0, time.UTC)))

	var undated ECG
	assert.Empty(t, undated.ToReading().ID)
}
