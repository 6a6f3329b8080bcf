package request

import (
	"fmt"
	"math"

	"github.com/joeecarter/heart-readings-server/reading"
)

// ECG represents an electrocardiogram entry as exported by Auto Export.
type ECG struct {
	Classification              string       `json:"classification"`
	VoltageMeasurements         []ECGVoltage `json:"voltageMeasurements"`
	Source                      string       `json:"source"`
	AverageHeartRate            float64      `json:"averageHeartRate"`
	Start                       *Timestamp   `json:"start"`
	NumberOfVoltageMeasurements int          `json:"numberOfVoltageMeasurements"`
	SamplingFrequency           int          `json:"samplingFrequency"`
	End                         *Timestamp   `json:"end"`
}

// ECGVoltage holds a single voltage measurement for an ECG recording.
type ECGVoltage struct {
	Date    *UnixTimestamp `json:"date"`
	Voltage float64        `json:"voltage"`
	Units   string         `json:"units"`
}

var ecgClassifications = map[string]reading.ECGType{
	"Sinus Rhythm":        reading.ECGNormal,
	"Atrial Fibrillation": reading.ECGAFib,
	"High Heart Rate":     reading.ECGSinusTachycardia,
	"Low Heart Rate":      reading.ECGSinusBradycardia,
}

// LookupECGType maps an Apple Health classification onto a reading ECG type.
func LookupECGType(classification string) reading.ECGType {
	if t, ok := ecgClassifications[classification]; ok {
		return t
	}
	return reading.ECGOther
}

// ToReading converts the recording into a reading. ECG recordings carry no blood
// pressure so systolic and diastolic stay zero.
func (ecg *ECG) ToReading() *reading.Reading {
	samples := ecg.NumberOfVoltageMeasurements
	if samples == 0 {
		samples = len(ecg.VoltageMeasurements)
	}

	note := fmt.Sprintf("%s ECG from %s", ecg.Classification, ecg.Source)
	if samples > 0 && ecg.SamplingFrequency > 0 {
		note += fmt.Sprintf(", %d samples at %d Hz", samples, ecg.SamplingFrequency)
	}

	r := &reading.Reading{
		Date:      ecg.Start.ToTime(),
		HeartRate: int(math.Round(ecg.AverageHeartRate)),
		ECGType:   LookupECGType(ecg.Classification),
		Notes:     &note,
	}
	if ecg.Start != nil {
		r.ID = ECGID(ecg.Source, r.Date)
	}
	return r
}
