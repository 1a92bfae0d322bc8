package leave

import (
	"errors"
	"time"
)

// CalculateDays returns the inclusive day count between start and end, so
// equal dates are a one-day leave.
func CalculateDays(start, end time.Time) (int, error) {
	start = dayStart(start)
	end = dayStart(end)
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
