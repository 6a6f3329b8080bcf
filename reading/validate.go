package reading

const (
	MinHeartRate = 30
	MaxHeartRate = 220
	MinSystolic  = 70
	MaxSystolic  = 220
	MinDiastolic = 40
	MaxDiastolic = 130
)

// Validate applies the entry rules. Readings already in a collection are never
// validated again; the query tolerates anything.
func (r *Reading) Validate() error {
	verr := &ValidationError{}

	if r.Date.IsZero() {
		verr.add("date", "Required")
	}
	checkRange(verr, "heartRate", r.HeartRate, MinHeartRate, MaxHeartRate)
	if !r.ECGType.Known() {
		verr.add("ecgType", "Unknown type")
	}
	checkRange(verr, "systolic", r.Systolic, MinSystolic, MaxSystolic)
	checkRange(verr, "diastolic", r.Diastolic, MinDiastolic, MaxDiastolic)

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func checkRange(verr *ValidationError, field string, v, min, max int) {
	switch {
	case v == 0:
		verr.add(field, "Required")
	case v < min:
		verr.add(field, "Too low")
	case v > max:
		verr.add(field, "Too high")
	}
}
