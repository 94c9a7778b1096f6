package schedule

import (
	"testing"
	"time"

	"github.com/easystreet/sweepd/internal/holiday"
	"github.com/easystreet/sweepd/internal/model"
)

// noHolidays keeps calendar effects out of tests that aren't about them.
type noHolidays struct{}

func (noHolidays) IsHoliday(time.Time) bool { return false }

var _ HolidayChecker = noHolidays{}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func seg(rules ...model.SweepingRule) model.StreetSegment {
	return model.StreetSegment{ID: "seg-1", StreetName: "Test St", Rules: rules}
}

func mondayRule() model.SweepingRule {
	return model.SweepingRule{Weekday: 2, StartTime: "09:00", EndTime: "11:00", AppliesHolidays: true}
}

func TestRuleApplies_WeekdayOnly(t *testing.T) {
	r := mondayRule()
	// 2026-03-02 is a Monday; walk the whole week.
	for offset := 0; offset < 7; offset++ {
		d := at(2026, time.March, 2+offset, 0, 0)
		got := RuleApplies(r, d, false)
		want := offset == 0
		if got != want {
			t.Fatalf("weekday %s: applies=%v, want %v", d.Weekday(), got, want)
		}
	}
}

func TestRuleApplies_WeeksOfMonth(t *testing.T) {
	r := mondayRule()
	r.WeeksOfMonth = []int{1, 3}
	// Mondays of March 2026: 2nd, 9th, 16th, 23rd, 30th.
	cases := []struct {
		day  int
		want bool
	}{
		{2, true}, {9, false}, {16, true}, {23, false}, {30, false},
	}
	for _, tc := range cases {
		d := at(2026, time.March, tc.day, 0, 0)
		if got := RuleApplies(r, d, false); got != tc.want {
			t.Fatalf("March %d: applies=%v, want %v", tc.day, got, tc.want)
		}
	}
}

func TestRuleApplies_OrdinalOccurrenceNotCalendarWeek(t *testing.T) {
	// May 2026 starts on a Friday, so calendar week numbering diverges from
	// weekday-occurrence counting. May 4 is the 1st Monday but falls in the
	// month's 2nd calendar week.
	r := mondayRule()
	r.WeeksOfMonth = []int{1}
	if !RuleApplies(r, at(2026, time.May, 4, 0, 0), false) {
		t.Fatalf("May 4 2026 is the 1st Monday and must match weeks=[1]")
	}
	if RuleApplies(r, at(2026, time.May, 11, 0, 0), false) {
		t.Fatalf("May 11 2026 is the 2nd Monday and must not match weeks=[1]")
	}
}

func TestRuleApplies_HolidaySuspension(t *testing.T) {
	suspended := mondayRule()
	suspended.AppliesHolidays = false
	enforced := mondayRule()

	d := at(2026, time.March, 2, 0, 0)
	if RuleApplies(suspended, d, true) {
		t.Fatalf("holiday-suspended rule must not apply on a holiday")
	}
	if !RuleApplies(suspended, d, false) {
		t.Fatalf("holiday-suspended rule applies on ordinary days")
	}
	if !RuleApplies(enforced, d, true) {
		t.Fatalf("holiday-enforced rule applies regardless of holidays")
	}
}

func TestHasSweepingToday(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	s := seg(mondayRule())
	if !e.HasSweepingToday(s, at(2026, time.March, 2, 15, 0)) {
		t.Fatalf("Monday should have sweeping")
	}
	if e.HasSweepingToday(s, at(2026, time.March, 3, 15, 0)) {
		t.Fatalf("Tuesday should not have sweeping")
	}
}

func TestNextOccurrence_SkipsToday(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	s := seg(mondayRule())
	// Monday morning, before the sweep: next occurrence is still next Monday.
	got, rule, ok := e.NextOccurrence(s, at(2026, time.March, 2, 6, 0))
	if !ok {
		t.Fatalf("expected an occurrence")
	}
	want := at(2026, time.March, 9, 9, 0)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if rule == nil || rule.Weekday != 2 {
		t.Fatalf("wrong rule reported: %+v", rule)
	}
}

func TestNextOccurrence_EarliestAcrossRules(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	wed := model.SweepingRule{Weekday: 4, StartTime: "13:00", EndTime: "15:00", AppliesHolidays: true}
	s := seg(mondayRule(), wed)
	// From Monday evening the Wednesday rule comes first.
	got, rule, ok := e.NextOccurrence(s, at(2026, time.March, 2, 20, 0))
	if !ok {
		t.Fatalf("expected an occurrence")
	}
	want := at(2026, time.March, 4, 13, 0)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if rule.Weekday != 4 {
		t.Fatalf("expected the Wednesday rule, got weekday %d", rule.Weekday)
	}
}

func TestNextOccurrence_TieKeepsFirstRule(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	a := mondayRule()
	b := mondayRule()
	b.EndTime = "12:00" // same start instant, distinguishable rule
	s := seg(a, b)
	_, rule, ok := e.NextOccurrence(s, at(2026, time.March, 2, 20, 0))
	if !ok {
		t.Fatalf("expected an occurrence")
	}
	if rule.EndTime != "11:00" {
		t.Fatalf("tie must report the first rule in input order, got end=%s", rule.EndTime)
	}
}

func TestNextOccurrence_MalformedTimeSkipsRule(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	bad := model.SweepingRule{Weekday: 2, StartTime: "soon", EndTime: "11:00", AppliesHolidays: true}
	wed := model.SweepingRule{Weekday: 4, StartTime: "13:00", EndTime: "15:00", AppliesHolidays: true}
	s := seg(bad, wed)
	got, _, ok := e.NextOccurrence(s, at(2026, time.March, 2, 20, 0))
	if !ok {
		t.Fatalf("expected the parseable rule to produce an occurrence")
	}
	if !got.Equal(at(2026, time.March, 4, 13, 0)) {
		t.Fatalf("got %v, want the Wednesday occurrence", got)
	}
}

func TestNextOccurrence_NoRules(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	if _, _, ok := e.NextOccurrence(seg(), at(2026, time.March, 2, 6, 0)); ok {
		t.Fatalf("segment without rules has no occurrence")
	}
}

func TestNextWindow_TodayBeforeStart(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	s := seg(mondayRule())
	start, end, ok := e.NextWindow(s, at(2026, time.March, 2, 6, 0))
	if !ok {
		t.Fatalf("expected a window")
	}
	if !start.Equal(at(2026, time.March, 2, 9, 0)) || !end.Equal(at(2026, time.March, 2, 11, 0)) {
		t.Fatalf("got [%v, %v], want today's window", start, end)
	}
}

func TestNextWindow_InProgress(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	s := seg(mondayRule())
	start, end, ok := e.NextWindow(s, at(2026, time.March, 2, 10, 0))
	if !ok {
		t.Fatalf("expected a window")
	}
	// Now is inside the window: the in-progress sweep is reported.
	if !start.Equal(at(2026, time.March, 2, 9, 0)) || !end.Equal(at(2026, time.March, 2, 11, 0)) {
		t.Fatalf("got [%v, %v], want the in-progress window", start, end)
	}
}

func TestNextWindow_EndExactlyNowFallsThrough(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	s := seg(mondayRule())
	start, _, ok := e.NextWindow(s, at(2026, time.March, 2, 11, 0))
	if !ok {
		t.Fatalf("expected a window")
	}
	if !start.Equal(at(2026, time.March, 9, 9, 0)) {
		t.Fatalf("a sweep ending exactly at now is over; got start %v, want next Monday", start)
	}
}

func TestColorStatus_Precedence(t *testing.T) {
	e := NewEvaluator(noHolidays{})
	// Reference Monday 2026-03-02.
	today := at(2026, time.March, 2, 8, 0)
	mon := mondayRule()
	tue := model.SweepingRule{Weekday: 3, StartTime: "09:00", EndTime: "11:00", AppliesHolidays: true}
	thu := model.SweepingRule{Weekday: 5, StartTime: "09:00", EndTime: "11:00", AppliesHolidays: true}
	fri := model.SweepingRule{Weekday: 6, StartTime: "09:00", EndTime: "11:00", AppliesHolidays: true}

	cases := []struct {
		name  string
		rules []model.SweepingRule
		want  model.ColorStatus
	}{
		{"today wins regardless of order", []model.SweepingRule{thu, mon}, model.ColorRed},
		{"today wins, reversed", []model.SweepingRule{mon, thu}, model.ColorRed},
		{"tomorrow is orange regardless of order", []model.SweepingRule{thu, tue}, model.ColorOrange},
		{"tomorrow is orange, reversed", []model.SweepingRule{tue, thu}, model.ColorOrange},
		{"three days out is yellow", []model.SweepingRule{thu}, model.ColorYellow},
		{"nothing within three days is green", []model.SweepingRule{fri}, model.ColorGreen},
		{"no rules is green", nil, model.ColorGreen},
	}
	for _, tc := range cases {
		got := e.ColorStatus(seg(tc.rules...), today)
		if got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestColorStatus_HolidaySuspendedRuleNotRed(t *testing.T) {
	cal := holiday.NewCalendar()
	e := NewEvaluator(cal)
	// Christmas 2026 falls on a Friday.
	christmas := at(2026, time.December, 25, 8, 0)
	suspended := model.SweepingRule{Weekday: 6, StartTime: "09:00", EndTime: "11:00", AppliesHolidays: false}
	if got := e.ColorStatus(seg(suspended), christmas); got == model.ColorRed {
		t.Fatalf("holiday-suspended rule must not color the holiday red, got %v", got)
	}
	enforced := model.SweepingRule{Weekday: 6, StartTime: "09:00", EndTime: "11:00", AppliesHolidays: true}
	if got := e.ColorStatus(seg(enforced), christmas); got != model.ColorRed {
		t.Fatalf("holiday-enforced rule sweeps on the holiday, got %v", got)
	}
}
