package holiday

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHolidays_ElevenPerYear(t *testing.T) {
	c := NewCalendar()
	for _, year := range []int{2024, 2025, 2026, 2027, 2030} {
		hs := c.Holidays(year)
		if len(hs) != 11 {
			t.Fatalf("year %d: got %d holidays, want 11", year, len(hs))
		}
		for _, h := range hs {
			if h.Month() == time.June && h.Day() == 19 {
				t.Fatalf("year %d: Juneteenth must not be a holiday", year)
			}
		}
	}
}

func TestFixedHolidays_NoShift(t *testing.T) {
	c := NewCalendar()
	// Jan 1 2026 is a Thursday, Dec 25 2026 is a Friday.
	if !c.IsHoliday(day(2026, time.January, 1)) {
		t.Fatalf("Jan 1 2026 should be a holiday")
	}
	if !c.IsHoliday(day(2026, time.December, 25)) {
		t.Fatalf("Dec 25 2026 should be a holiday")
	}
}

func TestObservedShift_SaturdayToFriday(t *testing.T) {
	c := NewCalendar()
	// Jul 4 2026 is a Saturday: observed on Friday Jul 3.
	if !c.IsHoliday(day(2026, time.July, 3)) {
		t.Fatalf("Jul 3 2026 (observed Independence Day) should be a holiday")
	}
	if c.IsHoliday(day(2026, time.July, 4)) {
		t.Fatalf("Jul 4 2026 itself should not be a holiday; the observed date counts")
	}
	// Dec 25 2027 is a Saturday: observed on Friday Dec 24.
	if !c.IsHoliday(day(2027, time.December, 24)) {
		t.Fatalf("Dec 24 2027 (observed Christmas) should be a holiday")
	}
}

func TestObservedShift_SundayToMonday(t *testing.T) {
	c := NewCalendar()
	// Jul 4 2027 is a Sunday: observed on Monday Jul 5.
	if !c.IsHoliday(day(2027, time.July, 5)) {
		t.Fatalf("Jul 5 2027 (observed Independence Day) should be a holiday")
	}
	if c.IsHoliday(day(2027, time.July, 4)) {
		t.Fatalf("Jul 4 2027 itself should not be a holiday")
	}
}

func TestCrossYear_NewYearsObservedInPriorDecember(t *testing.T) {
	c := NewCalendar()
	// Jan 1 2028 is a Saturday: observed on Friday Dec 31 2027.
	if !c.IsHoliday(day(2027, time.December, 31)) {
		t.Fatalf("Dec 31 2027 (observed New Year's Day 2028) should be a holiday")
	}
	if c.IsHoliday(day(2028, time.January, 1)) {
		t.Fatalf("Jan 1 2028 itself should not be a holiday")
	}
}

func TestFloatingHolidays2026(t *testing.T) {
	c := NewCalendar()
	cases := []struct {
		name string
		d    time.Time
	}{
		{"MLK Day", day(2026, time.January, 19)},
		{"Presidents' Day", day(2026, time.February, 16)},
		{"Memorial Day", day(2026, time.May, 25)},
		{"Labor Day", day(2026, time.September, 7)},
		{"Indigenous Peoples' Day", day(2026, time.October, 12)},
		{"Thanksgiving", day(2026, time.November, 26)},
		{"Day after Thanksgiving", day(2026, time.November, 27)},
	}
	for _, tc := range cases {
		if !c.IsHoliday(tc.d) {
			t.Fatalf("%s (%s) should be a holiday", tc.name, tc.d.Format("2006-01-02"))
		}
	}
	// Wrong Mondays/Thursdays must not match.
	if c.IsHoliday(day(2026, time.January, 12)) {
		t.Fatalf("2nd Monday of January is not MLK Day")
	}
	if c.IsHoliday(day(2026, time.November, 19)) {
		t.Fatalf("3rd Thursday of November is not Thanksgiving")
	}
}

func TestDayAfterThanksgiving_AcrossYears(t *testing.T) {
	c := NewCalendar()
	for _, d := range []time.Time{
		day(2025, time.November, 28),
		day(2026, time.November, 27),
		day(2027, time.November, 26),
	} {
		if !c.IsHoliday(d) {
			t.Fatalf("%s should be a holiday (day after Thanksgiving)", d.Format("2006-01-02"))
		}
	}
}

func TestRegularDaysAreNotHolidays(t *testing.T) {
	c := NewCalendar()
	for _, d := range []time.Time{
		day(2026, time.March, 15),
		day(2026, time.August, 20),
		day(2026, time.June, 19),
	} {
		if c.IsHoliday(d) {
			t.Fatalf("%s should not be a holiday", d.Format("2006-01-02"))
		}
	}
}

func TestCalendar_MemoizesPerYear(t *testing.T) {
	c := NewCalendar()
	first := c.Holidays(2026)
	second := c.Holidays(2026)
	if len(first) != len(second) {
		t.Fatalf("memoized set changed size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("memoized set changed at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCalendar_ConcurrentReads(t *testing.T) {
	c := NewCalendar()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if !c.IsHoliday(day(2026, time.December, 25)) {
					t.Error("Dec 25 2026 should be a holiday")
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
