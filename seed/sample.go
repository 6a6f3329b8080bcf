package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/request"
)

func strptr(s string) *string { return &s }

// SampleReadings returns the demonstration readings used when nothing else is configured.
func SampleReadings() []*reading.Reading {
	at := func(day, hour, min int) time.Time {
		return time.Date(2023, time.July, day, hour, min, 0, 0, time.Local)
	}
	return []*reading.Reading{
		{ID: "r1", Date: at(15, 8, 30), HeartRate: 72, ECGType: reading.ECGNormal, Systolic: 120, Diastolic: 80, Notes: strptr("Morning reading, fasting")},
		{ID: "r2", Date: at(14, 19, 15), HeartRate: 78, ECGType: reading.ECGNormal, Systolic: 124, Diastolic: 82, Notes: strptr("After dinner")},
		{ID: "r3", Date: at(13, 15, 0), HeartRate: 88, ECGType: reading.ECGSinusTachycardia, Systolic: 130, Diastolic: 85, Notes: strptr("After exercise")},
		{ID: "r4", Date: at(12, 9, 45), HeartRate: 68, ECGType: reading.ECGNormal, Systolic: 118, Diastolic: 79},
		{ID: "r5", Date: at(11, 22, 30), HeartRate: 65, ECGType: reading.ECGSinusBradycardia, Systolic: 115, Diastolic: 75, Notes: strptr("Before sleep, relaxed")},
	}
}

// LoadFile reads an export file and returns its readings.
func LoadFile(path string) ([]*reading.Reading, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	export, err := request.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return export.AllReadings(), nil
}
