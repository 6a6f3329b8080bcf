package reading

// SortField is the reading attribute a query orders by.
type SortField string

const (
	SortByDate      SortField = "date"
	SortByHeartRate SortField = "heartRate"
	SortByECGType   SortField = "ecgType"
	SortBySystolic  SortField = "systolic"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortSpec is the (field, direction) pair describing the order of a query result.
type SortSpec struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSortSpec is newest first.
func DefaultSortSpec() SortSpec {
	return SortSpec{Field: SortByDate, Direction: Descending}
}

// ParseSortSpec converts raw strings into a SortSpec, failing on anything outside the
// enumerated sets.
func ParseSortSpec(field, direction string) (SortSpec, error) {
	spec := SortSpec{Field: SortField(field), Direction: SortDirection(direction)}
	if err := spec.Validate(); err != nil {
		return SortSpec{}, err
	}
	return spec, nil
}

func (spec SortSpec) Validate() error {
	switch spec.Field {
	case SortByDate, SortByHeartRate, SortByECGType, SortBySystolic:
	default:
		return &InvalidArgumentError{Argument: "sort field", Value: string(spec.Field)}
	}
	switch spec.Direction {
	case Ascending, Descending:
	default:
		return &InvalidArgumentError{Argument: "sort direction", Value: string(spec.Direction)}
	}
	return nil
}

// Toggle returns the ordering after a column header click: the active field flips
// direction, any other field becomes active in descending order.
func (spec SortSpec) Toggle(field SortField) SortSpec {
	if field == spec.Field {
		if spec.Direction == Ascending {
			return SortSpec{Field: field, Direction: Descending}
		}
		return SortSpec{Field: field, Direction: Ascending}
	}
	return SortSpec{Field: field, Direction: Descending}
}

// QuickFilters maps preset names to search terms.
var QuickFilters = map[string]string{
	"normal": "normal",
	"sinus":  "sinus",
	"afib":   "afib",
	"clear":  "",
}

// QuickFilter resolves a preset name to its search term.
func QuickFilter(name string) (string, bool) {
	term, ok := QuickFilters[name]
	return term, ok
}
