package domain

import (
	"fmt"
	"time"
)

// MaxSeriesMonths bounds a monthly series request.
const MaxSeriesMonths = 36

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the UTC calendar month containing t.
func MonthWindow(t time.Time) Window {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// MonthOf returns the window for a given year and month.
func MonthOf(year int, month time.Month) (Window, error) {
	if month < time.January || month > time.December || year < 1970 || year > 9999 {
		return Window{}, &ValidationError{Field: "month", Reason: fmt.Sprintf("%d-%02d is not a valid month", year, month), Err: ErrInvalidWindow}
	}
	return MonthWindow(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)), nil
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Key is the YYYY-MM label of a monthly window.
func (w Window) Key() string {
	return w.Start.Format("2006-01")
}

// Months splits [from, to) into calendar months. from and to are rounded to
// month boundaries; the range must be non-empty and bounded.
func Months(from, to time.Time) ([]Window, error) {
	start := MonthWindow(from).Start
	end := MonthWindow(to).Start
	if !to.Equal(end) {
		end = end.AddDate(0, 1, 0)
	}
	if !start.Before(end) {
		return nil, &ValidationError{Field: "range", Reason: "from must be before to", Err: ErrInvalidWindow}
	}

	var windows []Window
	for s := start; s.Before(end); s = s.AddDate(0, 1, 0) {
		windows = append(windows, Window{Start: s, End: s.AddDate(0, 1, 0)})
		if len(windows) > MaxSeriesMonths {
			return nil, &ValidationError{Field: "range", Reason: fmt.Sprintf("at most %d months", MaxSeriesMonths), Err: ErrInvalidWindow}
		}
	}

	return windows, nil
}
