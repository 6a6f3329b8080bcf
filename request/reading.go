package request

import (
	"github.com/joeecarter/heart-readings-server/reading"
)

// Reading is the wire form of a reading inside an upload or create request.
type Reading struct {
	ID        string     `json:"id,omitempty"`
	Date      *Timestamp `json:"date"`
	HeartRate int        `json:"heartRate"`
	ECGType   string     `json:"ecgType"`
	Systolic  int        `json:"systolic"`
	Diastolic int        `json:"diastolic"`
	Notes     *string    `json:"notes,omitempty"`
}

func (r *Reading) ToReading() *reading.Reading {
	return &reading.Reading{
		ID:        r.ID,
		Date:      r.Date.ToTime(),
		HeartRate: r.HeartRate,
		ECGType:   reading.ECGType(r.ECGType),
		Systolic:  r.Systolic,
		Diastolic: r.Diastolic,
		Notes:     r.Notes,
	}
}

// FromReading builds the wire form of an existing reading.
func FromReading(r *reading.Reading) Reading {
	return Reading{
		ID:        r.ID,
		Date:      NewTimestamp(r.Date),
		HeartRate: r.HeartRate,
		ECGType:   string(r.ECGType),
		Systolic:  r.Systolic,
		Diastolic: r.Diastolic,
		Notes:     r.Notes,
	}
}
