package domain

import (
	"errors"
	"testing"
	"time"
)

func TestMonthWindow_BoundaryAttribution(t *testing.T) {
	t.Parallel()

	march, err := MonthOf(2024, time.March)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	justBefore := march.Start.Add(-time.Millisecond)
	justAfter := march.Start.Add(time.Millisecond)

	if march.Contains(justBefore) {
		t.Fatal("completion 1ms before the month must be excluded")
	}
	if !march.Contains(justAfter) {
		t.Fatal("completion 1ms after the month start must be included")
	}
	if march.Contains(march.End) {
		t.Fatal("window end is exclusive")
	}
	if !march.Contains(march.End.Add(-time.Millisecond)) {
		t.Fatal("last millisecond of the month must be included")
	}
}

func TestMonthWindow_NormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	// 1 March 01:00 local is still February in UTC.
	w := MonthWindow(time.Date(2024, 3, 1, 1, 0, 0, 0, loc))

	if w.Key() != "2024-02" {
		t.Fatalf("expected 2024-02, got %s", w.Key())
	}
}

func TestMonthOf_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := MonthOf(2024, 13); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestMonths(t *testing.T) {
	t.Parallel()

	from := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	windows, err := Months(from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2023-11", "2023-12", "2024-01"}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(windows))
	}
	for i, w := range windows {
		if w.Key() != want[i] {
			t.Fatalf("window %d: expected %s, got %s", i, want[i], w.Key())
		}
	}

	if _, err := Months(to, from); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for inverted range, got %v", err)
	}

	if _, err := Months(from, from.AddDate(10, 0, 0)); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for unbounded range, got %v", err)
	}
}
