package biztime

import (
	"testing"
	"time"
)

// TestCalendarMonthWindow verifies the billing window spans exactly the
// calendar month containing the given instant.
func TestCalendarMonthWindow(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid month",
			at:        time.Date(2026, 9, 15, 12, 30, 0, 0, time.UTC),
			wantStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			name:      "first instant of month",
			at:        time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			name:      "december rolls into january",
			at:        time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
			wantStart: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
		{
			name:      "february in a leap year",
			at:        time.Date(2028, 2, 10, 8, 0, 0, 0, time.UTC),
			wantStart: time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := CalendarMonthWindow(tt.at)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

// TestCalendarMonthWindow_ContainsInstant verifies the defining property
// of the window for a spread of instants.
func TestCalendarMonthWindow_ContainsInstant(t *testing.T) {
	instants := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 30, 23, 59, 59, 999999999, time.UTC),
		time.Now().UTC(),
	}
	for _, at := range instants {
		start, end := CalendarMonthWindow(at)
		if at.Before(start) || at.After(end) {
			t.Errorf("instant %v outside its own window [%v, %v]", at, start, end)
		}
		if start.Month() != at.Month() || start.Year() != at.Year() {
			t.Errorf("window start %v not in the month of %v", start, at)
		}
	}
}
