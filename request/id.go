package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var readingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/joeecarter/heart-readings-server/readings"))

// ECGID identifies a device recording by its source and start instant, so the same
// recording uploaded twice maps onto one reading.
func ECGID(source string, start time.Time) string {
	key := fmt.Sprintf("ecg|%s|%s", source, start.UTC().Format(time.RFC3339Nano))
	return uuid.NewSHA1(readingNamespace, []byte(key)).String()
}

// ContentID identifies an exported reading that carries no id by its measured values.
func (r *Reading) ContentID() string {
	key := fmt.Sprintf("reading|%s|%d|%s|%d|%d",
		r.Date.ToTime().UTC().Format(time.RFC3339Nano), r.HeartRate, r.ECGType, r.Systolic, r.Diastolic)
	return uuid.NewSHA1(readingNamespace, []byte(key)).String()
}
