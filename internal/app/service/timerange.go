package service

import (
	"errors"
	"time"
)

// ErrInvalidCustomRange signals a custom range request with a missing or
// unparseable start/end date.
var ErrInvalidCustomRange = errors.New("invalid_custom_range")

// TimeRange is an absolute reporting window in epoch milliseconds, used as an
// inclusive BETWEEN bound by the aggregation queries.
type TimeRange struct {
	StartMs int64
	EndMs   int64
}

// ResolveRange translates a range selector into an absolute interval.
//
// "7d"/"30d" end at the start of the UTC day after now (through end of
// today) and reach back the respective number of days. Anything else is
// treated as a custom range: start's date at 00:00:00.000 UTC through end's
// date at 23:59:59.999 UTC.
func ResolveRange(rangeKey, start, end string, now time.Time) (TimeRange, error) {
	if rangeKey == "" {
		rangeKey = "7d"
	}

	if rangeKey == "7d" || rangeKey == "30d" {
		days := 7
		if rangeKey == "30d" {
			days = 30
		}
		u := now.UTC()
		endT := time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
		startT := endT.AddDate(0, 0, -days)
		return TimeRange{StartMs: startT.UnixMilli(), EndMs: endT.UnixMilli()}, nil
	}

	if start == "" || end == "" {
		return TimeRange{}, ErrInvalidCustomRange
	}

	startT, err := time.ParseInLocation("2006-01-02", start, time.UTC)
	if err != nil {
		return TimeRange{}, ErrInvalidCustomRange
	}
	endT, err := time.ParseInLocation("2006-01-02", end, time.UTC)
	if err != nil {
		return TimeRange{}, ErrInvalidCustomRange
	}

	// Inclusive end of day.
	endT = endT.Add(24*time.Hour - time.Millisecond)

	return TimeRange{StartMs: startT.UnixMilli(), EndMs: endT.UnixMilli()}, nil
}
