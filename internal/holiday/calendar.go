// Package holiday computes the observed public-holiday calendar used to
// suspend street-sweeping enforcement.
package holiday

import (
	"sync"
	"time"
)

// Calendar memoizes the observed holiday set per year. Computation is
// idempotent, so a race between two goroutines populating the same year is
// harmless: both write identical sets.
type Calendar struct {
	mu    sync.RWMutex
	years map[int][]time.Time
}

func NewCalendar() *Calendar {
	return &Calendar{years: make(map[int][]time.Time)}
}

// Holidays returns the 11 observed holiday dates for the given year, at
// midnight UTC. Fixed holidays shift to the nearest weekday when they land
// on a weekend: Saturday observes on the preceding Friday, Sunday on the
// following Monday. Juneteenth is absent on purpose: the enforcing authority
// sweeps streets that day.
func (c *Calendar) Holidays(year int) []time.Time {
	c.mu.RLock()
	hs, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return hs
	}

	hs = computeHolidays(year)

	c.mu.Lock()
	c.years[year] = hs
	c.mu.Unlock()
	return hs
}

// IsHoliday reports whether the calendar date of t is an observed holiday.
// December dates additionally check the next year's set: a Saturday Jan 1 is
// observed on the preceding Friday, Dec 31 of the prior year.
func (c *Calendar) IsHoliday(t time.Time) bool {
	y, m, d := t.Date()
	for _, h := range c.Holidays(y) {
		hy, hm, hd := h.Date()
		if hy == y && hm == m && hd == d {
			return true
		}
	}
	if m == time.December {
		for _, h := range c.Holidays(y + 1) {
			hy, hm, hd := h.Date()
			if hy == y && hm == m && hd == d {
				return true
			}
		}
	}
	return false
}

func computeHolidays(year int) []time.Time {
	return []time.Time{
		observed(date(year, time.January, 1)),   // New Year's Day
		observed(date(year, time.July, 4)),      // Independence Day
		observed(date(year, time.November, 11)), // Veterans Day
		observed(date(year, time.December, 25)), // Christmas Day

		nthWeekday(year, time.January, time.Monday, 3),    // MLK Day
		nthWeekday(year, time.February, time.Monday, 3),   // Presidents' Day
		lastWeekday(year, time.May, time.Monday),          // Memorial Day
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.October, time.Monday, 2),    // Indigenous Peoples' Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		nthWeekday(year, time.November, time.Thursday, 4).AddDate(0, 0, 1), // Day after Thanksgiving
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// observed shifts a weekend holiday to its enforced weekday.
func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}

// nthWeekday returns the nth occurrence of a weekday within the month.
// Floating holidays always land on weekdays, so no observed shift applies.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	first := date(year, month, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	last := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}
