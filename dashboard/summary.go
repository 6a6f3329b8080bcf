package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/joeecarter/heart-readings-server/reading"
)

// Range restricts the readings summarized to a trailing window.
type Range string

const (
	RangeAll   Range = ""
	RangeDay   Range = "24h"
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
	RangeQtr   Range = "90d"
)

var rangeDurations = map[Range]time.Duration{
	RangeDay:   24 * time.Hour,
	RangeWeek:  7 * 24 * time.Hour,
	RangeMonth: 30 * 24 * time.Hour,
	RangeQtr:   90 * 24 * time.Hour,
}

func ParseRange(s string) (Range, error) {
	r := Range(s)
	if r == RangeAll {
		return r, nil
	}
	if _, ok := rangeDurations[r]; !ok {
		return "", &reading.InvalidArgumentError{Argument: "range", Value: s}
	}
	return r, nil
}

type Summary struct {
	Range            Range     `json:"range"`
	Count            int       `json:"count"`
	AverageHeartRate int       `json:"averageHeartRate"`
	Latest           *Latest   `json:"latest,omitempty"`
	MonitoringHours  int       `json:"monitoringHours"`
	Trend            *Trend    `json:"trend,omitempty"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// Latest describes the most recent reading.
type Latest struct {
	ID            string                        `json:"id"`
	ECGType       reading.ECGType               `json:"ecgType"`
	ECGLabel      string                        `json:"ecgLabel"`
	Date          time.Time                     `json:"date"`
	Ago           string                        `json:"ago"`
	BloodPressure reading.BloodPressureCategory `json:"bloodPressure"`
}

// Trend compares the average heart rate of the last seven days with the seven before.
type Trend struct {
	Value      int    `json:"value"`
	Label      string `json:"label"`
	IsPositive bool   `json:"isPositive"`
}

// Summarize computes dashboard figures for the readings inside rng, relative to now.
func Summarize(readings []*reading.Reading, rng Range, now time.Time) Summary {
	s := Summary{Range: rng, GeneratedAt: now}

	var (
		sum           int
		first, latest *reading.Reading
	)
	for _, r := range readings {
		if r == nil || !inRange(r.Date, rng, now) {
			continue
		}
		s.Count++
		sum += r.HeartRate
		if first == nil || r.Date.Before(first.Date) {
			first = r
		}
		if latest == nil || r.Date.After(latest.Date) {
			latest = r
		}
	}
	if s.Count == 0 {
		return s
	}

	s.AverageHeartRate = int(math.Round(float64(sum) / float64(s.Count)))
	s.MonitoringHours = int(latest.Date.Sub(first.Date).Hours())
	s.Latest = &Latest{
		ID:            latest.ID,
		ECGType:       latest.ECGType,
		ECGLabel:      latest.ECGType.Label(),
		Date:          latest.Date,
		Ago:           Ago(now.Sub(latest.Date)),
		BloodPressure: latest.BloodPressure(),
	}
	s.Trend = weeklyTrend(readings, now)
	return s
}

func inRange(t time.Time, rng Range, now time.Time) bool {
	d, ok := rangeDurations[rng]
	if !ok {
		return true
	}
	return t.After(now.Add(-d)) && !t.After(now)
}

func weeklyTrend(readings []*reading.Reading, now time.Time) *Trend {
	week := 7 * 24 * time.Hour
	current, ok := averageBetween(readings, now.Add(-week), now)
	if !ok {
		return nil
	}
	previous, ok := averageBetween(readings, now.Add(-2*week), now.Add(-week))
	if !ok || previous == 0 {
		return nil
	}

	change := (current - previous) / previous * 100
	return &Trend{
		Value:      int(math.Round(math.Abs(change))),
		Label:      "from last week",
		IsPositive: change <= 0,
	}
}

// averageBetween averages heart rates of readings dated in (from, to].
func averageBetween(readings []*reading.Reading, from, to time.Time) (float64, bool) {
	var sum, n int
	for _, r := range readings {
		if r != nil && r.Date.After(from) && !r.Date.After(to) {
			sum += r.HeartRate
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// Ago renders an elapsed duration the way the dashboard cards do: "2 hours ago".
func Ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
