package rank

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when there are no stations to rank, since no
// reference station can be chosen.
var ErrEmptyInput = errors.New("rank: no stations to rank")

// ConsistencyError reports a station whose percentile layout does not match
// the selection. It indicates malformed input data.
type ConsistencyError struct {
	Station int
	Name    string
	Index   int
	Want    float64
	Got     float64
	Reason  string
}

func (e *ConsistencyError) Error() string {
	if e.Want != e.Got {
		return fmt.Sprintf("rank: station %d (%s): %s at index %d: want %v, got %v",
			e.Station, e.Name, e.Reason, e.Index, e.Want, e.Got)
	}
	return fmt.Sprintf("rank: station %d (%s): %s (index %d)", e.Station, e.Name, e.Reason, e.Index)
}
