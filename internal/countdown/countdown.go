// Package countdown renders the time remaining until a sweep as short
// human-readable text.
package countdown

import (
	"fmt"
	"time"
)

const (
	InProgress = "Sweeping in progress"
	Completed  = "Sweep completed"
)

// Format renders the interval until a sweep starts. A non-positive
// interval means the sweep has started; sweepDuration decides whether it
// is still running or already over. Granularity coarsens with distance:
// days+hours beyond 24h, hours+minutes beyond 1h, minutes+seconds below.
func Format(until, sweepDuration time.Duration) string {
	if until <= 0 {
		if sweepDuration > 0 && -until < sweepDuration {
			return InProgress
		}
		if until == 0 {
			return InProgress
		}
		return Completed
	}

	total := int(until.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case total >= 86400:
		return fmt.Sprintf("%dd %dh remaining", days, hours)
	case total >= 3600:
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	default:
		return fmt.Sprintf("%dm %ds remaining", minutes, seconds)
	}
}

// Until is a convenience for callers holding absolute times.
func Until(start time.Time, end time.Time, now time.Time) string {
	return Format(start.Sub(now), end.Sub(start))
}
