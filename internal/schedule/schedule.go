// Package schedule evaluates sweeping recurrence rules against calendar
// dates and answers per-segment temporal queries: is sweeping today, when is
// the next occurrence, and which render color a segment gets.
package schedule

import (
	"time"

	"github.com/easystreet/sweepd/internal/model"
)

// scanDays bounds the forward search for the next applicable day per rule.
// Even 5th-week-of-month rules recur well inside six months.
const scanDays = 180

// HolidayChecker reports whether a date is an observed holiday.
type HolidayChecker interface {
	IsHoliday(t time.Time) bool
}

// Evaluator runs temporal queries for segments. It holds no per-query state
// and is safe for concurrent use.
type Evaluator struct {
	holidays HolidayChecker
}

func NewEvaluator(h HolidayChecker) *Evaluator {
	return &Evaluator{holidays: h}
}

// RuleApplies reports whether a rule is in force on the given calendar date.
// Time-of-day is the caller's concern.
func RuleApplies(r model.SweepingRule, date time.Time, isHoliday bool) bool {
	if weekdayOrdinal(date) != r.Weekday {
		return false
	}
	if len(r.WeeksOfMonth) > 0 {
		// 1-based ordinal occurrence of this weekday within the month,
		// not the calendar week number.
		occurrence := (date.Day()-1)/7 + 1
		found := false
		for _, w := range r.WeeksOfMonth {
			if w == occurrence {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !r.AppliesHolidays && isHoliday {
		return false
	}
	return true
}

// weekdayOrdinal maps Go's Sunday=0 convention onto the store's 1=Sunday.
func weekdayOrdinal(t time.Time) int {
	return int(t.Weekday()) + 1
}

// HasSweepingToday reports whether any rule of the segment is in force on
// the calendar date of today.
func (e *Evaluator) HasSweepingToday(seg model.StreetSegment, today time.Time) bool {
	holiday := e.holidays.IsHoliday(today)
	for _, r := range seg.Rules {
		if RuleApplies(r, today, holiday) {
			return true
		}
	}
	return false
}

// NextOccurrence finds the earliest upcoming sweep start strictly after the
// reference date's calendar day, scanning up to 180 days ahead per rule.
// The rule reported alongside the time is the first rule (in input order)
// that produced the winning instant; later rules only replace it with a
// strictly earlier time.
func (e *Evaluator) NextOccurrence(seg model.StreetSegment, ref time.Time) (time.Time, *model.SweepingRule, bool) {
	var (
		best     time.Time
		bestRule *model.SweepingRule
	)

	for i := range seg.Rules {
		r := seg.Rules[i]
		start, ok := e.nextForRule(r, ref)
		if !ok {
			continue
		}
		if bestRule == nil || start.Before(best) {
			best = start
			bestRule = &seg.Rules[i]
		}
	}
	if bestRule == nil {
		return time.Time{}, nil, false
	}
	return best, bestRule, true
}

// nextForRule returns the rule's earliest start on or after the day
// following ref.
func (e *Evaluator) nextForRule(r model.SweepingRule, ref time.Time) (time.Time, bool) {
	startMin, err := r.StartMinutes()
	if err != nil {
		return time.Time{}, false
	}
	for offset := 1; offset <= scanDays; offset++ {
		d := midnight(ref).AddDate(0, 0, offset)
		if RuleApplies(r, d, e.holidays.IsHoliday(d)) {
			return d.Add(time.Duration(startMin) * time.Minute), true
		}
	}
	return time.Time{}, false
}

// NextWindow behaves like NextOccurrence but considers today first: a rule
// in force today contributes its window when the start is still ahead of
// now, or when now falls inside the window (an in-progress sweep). The end
// bound is strict: a sweep ending exactly at now has ended, and the search
// falls through to the next occurrence entirely.
func (e *Evaluator) NextWindow(seg model.StreetSegment, now time.Time) (start, end time.Time, ok bool) {
	today := midnight(now)
	holiday := e.holidays.IsHoliday(now)

	for _, r := range seg.Rules {
		if !RuleApplies(r, now, holiday) {
			continue
		}
		startMin, err := r.StartMinutes()
		if err != nil {
			continue
		}
		endMin, err := r.EndMinutes()
		if err != nil {
			continue
		}
		s := today.Add(time.Duration(startMin) * time.Minute)
		en := today.Add(time.Duration(endMin) * time.Minute)
		if s.After(now) || en.After(now) {
			if !ok || s.Before(start) {
				start, end, ok = s, en, true
			}
		}
	}
	if ok {
		return start, end, true
	}

	next, rule, found := e.NextOccurrence(seg, now)
	if !found {
		return time.Time{}, time.Time{}, false
	}
	endMin, err := rule.EndMinutes()
	if err != nil {
		// Window end is unavailable; the start alone still schedules.
		return next, next, true
	}
	return next, midnight(next).Add(time.Duration(endMin) * time.Minute), true
}

// ColorStatus classifies a segment for map rendering. Red when sweeping is
// today; otherwise the first of the next three days with a matching rule
// decides: tomorrow is orange, two or three days out is yellow. Green when
// nothing matches. Kept independent of the status engine so it stays cheap
// enough to recompute for every visible polyline.
func (e *Evaluator) ColorStatus(seg model.StreetSegment, today time.Time) model.ColorStatus {
	if e.HasSweepingToday(seg, today) {
		return model.ColorRed
	}
	for offset := 1; offset <= 3; offset++ {
		d := midnight(today).AddDate(0, 0, offset)
		holiday := e.holidays.IsHoliday(d)
		for _, r := range seg.Rules {
			if RuleApplies(r, d, holiday) {
				if offset == 1 {
					return model.ColorOrange
				}
				return model.ColorYellow
			}
		}
	}
	return model.ColorGreen
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
