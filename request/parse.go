package request

import (
	"encoding/json"
	"fmt"

	"github.com/joeecarter/heart-readings-server/reading"
)

// Export is the upload payload: manually entered readings plus device ECG recordings.
type Export struct {
	Data ExportData `json:"data"`
}

type ExportData struct {
	Readings []Reading `json:"readings"`
	ECG      []ECG     `json:"ecg"`
}

func Parse(b []byte) (*Export, error) {
	var export Export
	if err := json.Unmarshal(b, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return &export, nil
}

// AllReadings flattens the export into readings, manual entries first. Dated entries
// without an id get one derived from their content so re-sending an export upserts.
func (export *Export) AllReadings() []*reading.Reading {
	out := make([]*reading.Reading, 0, export.TotalReadings())
	for i := range export.Data.Readings {
		wire := &export.Data.Readings[i]
		r := wire.ToReading()
		if r.ID == "" && wire.Date != nil {
			r.ID = wire.ContentID()
		}
		out = append(out, r)
	}
	for i := range export.Data.ECG {
		out = append(out, export.Data.ECG[i].ToReading())
	}
	return out
}

func (export *Export) TotalReadings() int {
	return len(export.Data.Readings) + len(export.Data.ECG)
}

// NewExport wraps readings in an upload payload.
func NewExport(readings []*reading.Reading) *Export {
	export := &Export{Data: ExportData{Readings: make([]Reading, len(readings))}}
	for i, r := range readings {
		export.Data.Readings[i] = FromReading(r)
	}
	return export
}
