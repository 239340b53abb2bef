package loki

import (
	"math"
	"time"
)

// TimeRange is an absolute query window in Unix nanoseconds.
type TimeRange struct {
	Start int64
	End   int64
}

// Duration returns the length of the window.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.End - r.Start)
}

// CalculateRange returns the window covering hoursAgo hours up to now (UTC).
// The clock is read exactly once.
func CalculateRange(hoursAgo float64) (TimeRange, error) {
	return CalculateRangeAt(time.Now().UTC(), hoursAgo)
}

// CalculateRangeAt is CalculateRange anchored to an explicit instant.
func CalculateRangeAt(now time.Time, hoursAgo float64) (TimeRange, error) {
	if math.IsNaN(hoursAgo) || math.IsInf(hoursAgo, 0) {
		return TimeRange{}, &InvalidArgumentError{
			Field:   "hours_ago",
			Message: "must be a finite number",
		}
	}
	if hoursAgo < 0 {
		return TimeRange{}, &InvalidArgumentError{
			Field:   "hours_ago",
			Message: "must be non-negative",
		}
	}

	nanos := hoursAgo * float64(time.Hour)
	if nanos >= math.MaxInt64 {
		return TimeRange{}, &InvalidArgumentError{
			Field:   "hours_ago",
			Message: "lookback window is too large",
		}
	}

	// The float-to-integer conversion truncates toward zero.
	lookback := time.Duration(nanos)

	return TimeRange{
		Start: now.Add(-lookback).UnixNano(),
		End:   now.UnixNano(),
	}, nil
}
