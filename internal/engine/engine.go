// Package engine classifies a parked location's sweeping exposure into the
// user-facing status variants.
package engine

import (
	"time"

	"github.com/easystreet/sweepd/internal/model"
	"github.com/easystreet/sweepd/internal/schedule"
)

// imminentWindow is the threshold below which an upcoming sweep today is
// reported as imminent. The bound is exclusive: exactly 60 minutes out is
// still Today.
const imminentWindow = time.Hour

// Engine evaluates statuses fresh on every call; it keeps no state between
// evaluations.
type Engine struct {
	eval     *schedule.Evaluator
	holidays schedule.HolidayChecker
}

func New(eval *schedule.Evaluator, holidays schedule.HolidayChecker) *Engine {
	return &Engine{eval: eval, holidays: holidays}
}

// Status classifies now against the segment's rules.
//
// A nil segment is NoData. Among rules in force today the first one in input
// order decides: a start already behind now is Safe, a start under an hour
// away is Imminent, otherwise Today. Without a today-rule the next
// occurrence, if any, is Upcoming; none at all is Safe. A matching rule
// whose start time fails to parse yields Unknown rather than an error.
func (e *Engine) Status(seg *model.StreetSegment, now time.Time) model.SweepingStatus {
	if seg == nil {
		return model.SweepingStatus{Kind: model.StatusNoData}
	}

	holiday := e.holidays.IsHoliday(now)
	for _, r := range seg.Rules {
		if !schedule.RuleApplies(r, now, holiday) {
			continue
		}
		startMin, err := r.StartMinutes()
		if err != nil {
			return model.SweepingStatus{Kind: model.StatusUnknown}
		}
		y, m, d := now.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).
			Add(time.Duration(startMin) * time.Minute)

		if start.Before(now) {
			// Already started (or done) today; treated as passed.
			return model.SweepingStatus{Kind: model.StatusSafe}
		}
		kind := model.StatusToday
		if start.Sub(now) < imminentWindow {
			kind = model.StatusImminent
		}
		return model.SweepingStatus{Kind: kind, Time: start, StreetName: seg.StreetName}
	}

	if next, _, ok := e.eval.NextOccurrence(*seg, now); ok {
		return model.SweepingStatus{Kind: model.StatusUpcoming, Time: next, StreetName: seg.StreetName}
	}
	return model.SweepingStatus{Kind: model.StatusSafe}
}
