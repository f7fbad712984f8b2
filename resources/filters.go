package resources

import "github.com/stayops/apisvc"

// Query encodes the filter as list parameters.
func (f UserFilter) Query() (apisvc.QueryParams, error) {
	return apisvc.FromStruct(f)
}

// Query encodes the filter as list parameters.
func (f ServiceCallFilter) Query() (apisvc.QueryParams, error) {
	return apisvc.FromStruct(f)
}

// Query encodes the filter as list parameters. The floor range and the status
// multi-select travel as JSON values, e.g. floors={"min":1,"max":3}.
func (f RoomFilter) Query() apisvc.QueryParams {
	var q apisvc.QueryParams
	if f.Floors != nil {
		q.Set("floors", f.Floors)
	}
	if len(f.Statuses) > 0 {
		q.Set("statuses", f.Statuses)
	}
	if f.Building != "" {
		q.Set("building", f.Building)
	}
	return q
}

// Between returns a closed floor range.
func Between(lo, hi int) *Range {
	return &Range{Min: &lo, Max: &hi}
}
