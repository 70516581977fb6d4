package domain

import (
	"fmt"
	"time"
)

// TimeWindow is an inclusive [Start, End] interval.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds the window date@startHour:00:00 .. date@endHour:00:00 in loc.
// time.Date silently normalises out-of-range values (month 13 becomes January),
// so the result is compared against its inputs and any normalisation is rejected.
func NewTimeWindow(year, month, day, startHour, endHour int, loc *time.Location) (TimeWindow, error) {
	if loc == nil {
		loc = time.Local
	}

	start, err := buildInstant(year, month, day, startHour, loc)
	if err != nil {
		return TimeWindow{}, err
	}
	end, err := buildInstant(year, month, day, endHour, loc)
	if err != nil {
		return TimeWindow{}, err
	}

	if start.After(end) {
		return TimeWindow{}, fmt.Errorf("%w: start hour %d is after end hour %d", ErrInvalidDate, startHour, endHour)
	}

	return TimeWindow{Start: start, End: end}, nil
}

func buildInstant(year, month, day, hour int, loc *time.Location) (time.Time, error) {
	// hour 24 is allowed so a window can run to the end of the day
	if hour < 0 || hour > 24 {
		return time.Time{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidDate, hour)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}

	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, loc), nil
}

// Contains reports whether t falls inside the window, boundaries included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
