package reading

import (
	"cmp"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Query filters records by searchTerm and orders the survivors by spec. The input slice
// and its records are left untouched; the result holds the same pointers.
func Query(records []*Reading, searchTerm string, spec SortSpec) ([]*Reading, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	term := strings.ToLower(searchTerm)
	result := make([]*Reading, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if Matches(r, term) {
			result = append(result, r)
		}
	}

	compare := comparator(spec.Field)
	if spec.Direction == Descending {
		asc := compare
		compare = func(a, b *Reading) int { return -asc(a, b) }
	}
	sort.SliceStable(result, func(i, j int) bool { return compare(result[i], result[j]) < 0 })

	return result, nil
}

// Matches reports whether a lowercase term is contained in any searchable field of r.
// An empty term matches everything.
func Matches(r *Reading, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(FormatDate(r.Date)), term) {
		return true
	}
	if strings.Contains(strings.ToLower(string(r.ECGType)), term) {
		return true
	}
	if strings.Contains(strconv.Itoa(r.HeartRate), term) {
		return true
	}
	return r.Notes != nil && strings.Contains(strings.ToLower(*r.Notes), term)
}

func comparator(field SortField) func(a, b *Reading) int {
	switch field {
	case SortByHeartRate:
		return func(a, b *Reading) int { return cmp.Compare(a.HeartRate, b.HeartRate) }
	case SortByECGType:
		return func(a, b *Reading) int { return strings.Compare(string(a.ECGType), string(b.ECGType)) }
	case SortBySystolic:
		return func(a, b *Reading) int { return cmp.Compare(a.Systolic, b.Systolic) }
	default:
		return func(a, b *Reading) int { return a.Date.Compare(b.Date) }
	}
}

// FormatDate renders the long date shown in the reading list, e.g. "July 15th, 2023".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), ordinalSuffix(t.Day()), t.Year())
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
