package reading

import (
	"strings"
	"time"
)

// Reading is a single recorded health measurement.
type Reading struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	HeartRate int       `json:"heartRate"`
	ECGType   ECGType   `json:"ecgType"`
	Systolic  int       `json:"systolic"`
	Diastolic int       `json:"diastolic"`
	Notes     *string   `json:"notes,omitempty"`
}

// NewEntry returns a reading populated with the entry form defaults.
func NewEntry(now time.Time) *Reading {
	return &Reading{
		Date:      now,
		HeartRate: 72,
		ECGType:   ECGNormal,
		Systolic:  120,
		Diastolic: 80,
	}
}

// NoteText returns the notes or "" when absent.
func (r *Reading) NoteText() string {
	if r.Notes == nil {
		return ""
	}
	return *r.Notes
}

// ECGType is the raw ECG classification string carried by a reading. Values outside the
// known set are kept verbatim and classify as ECGClassUnknown.
type ECGType string

const (
	ECGNormal           ECGType = "normal"
	ECGSinusTachycardia ECGType = "sinus_tachycardia"
	ECGSinusBradycardia ECGType = "sinus_bradycardia"
	ECGAFib             ECGType = "afib"
	ECGPVC              ECGType = "pvc"
	ECGOther            ECGType = "other"
)

// KnownECGTypes lists the classifications accepted at entry, in form order.
var KnownECGTypes = []ECGType{
	ECGNormal,
	ECGSinusTachycardia,
	ECGSinusBradycardia,
	ECGAFib,
	ECGPVC,
	ECGOther,
}

// ECGClass is the closed set of ECG categories.
type ECGClass int

const (
	ECGClassUnknown ECGClass = iota
	ECGClassNormal
	ECGClassSinusTachycardia
	ECGClassSinusBradycardia
	ECGClassAFib
	ECGClassPVC
	ECGClassOther
)

// Class maps the raw string onto the closed category set.
func (t ECGType) Class() ECGClass {
	switch t {
	case ECGNormal:
		return ECGClassNormal
	case ECGSinusTachycardia:
		return ECGClassSinusTachycardia
	case ECGSinusBradycardia:
		return ECGClassSinusBradycardia
	case ECGAFib:
		return ECGClassAFib
	case ECGPVC:
		return ECGClassPVC
	case ECGOther:
		return ECGClassOther
	default:
		return ECGClassUnknown
	}
}

func (t ECGType) Known() bool {
	return t.Class() != ECGClassUnknown
}

// Label renders the type for display: "sinus_tachycardia" becomes "Sinus Tachycardia".
func (t ECGType) Label() string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Badge is the display category of an ECG type.
type Badge string

const (
	BadgeDefault     Badge = "default"
	BadgeSecondary   Badge = "secondary"
	BadgeDestructive Badge = "destructive"
	BadgeOutline     Badge = "outline"
)

func (t ECGType) Badge() Badge {
	switch t.Class() {
	case ECGClassNormal:
		return BadgeDefault
	case ECGClassSinusTachycardia, ECGClassSinusBradycardia:
		return BadgeSecondary
	case ECGClassAFib:
		return BadgeDestructive
	default:
		return BadgeOutline
	}
}

// BloodPressureCategory classifies a systolic/diastolic pair.
type BloodPressureCategory string

const (
	BloodPressureNormal   BloodPressureCategory = "Normal"
	BloodPressureElevated BloodPressureCategory = "Elevated"
	BloodPressureHigh     BloodPressureCategory = "High"
)

func (r *Reading) BloodPressure() BloodPressureCategory {
	switch {
	case r.Systolic < 120 && r.Diastolic < 80:
		return BloodPressureNormal
	case r.Systolic < 130 && r.Diastolic < 85:
		return BloodPressureElevated
	default:
		return BloodPressureHigh
	}
}
