// Package notify plans and publishes sweep reminders for parked cars.
package notify

import (
	"context"
	"time"

	"github.com/easystreet/sweepd/internal/model"
)

// DefaultLead is how far before a sweep window the reminder fires.
const DefaultLead = 60 * time.Minute

// Alert is the reminder message published when a parked car's street is
// about to be swept.
type Alert struct {
	DeviceID   string       `json:"device_id"`
	StreetName string       `json:"street_name"`
	Location   model.LatLng `json:"location"`
	SweepStart time.Time    `json:"sweep_start"`
	SweepEnd   time.Time    `json:"sweep_end"`
	FireAt     time.Time    `json:"fire_at"`
}

// Publisher delivers alerts to the outside world.
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
}

// Planner turns a parked car plus its next sweep window into an alert
// scheduled lead time before the sweep.
type Planner struct {
	lead time.Duration
}

func NewPlanner(lead time.Duration) *Planner {
	if lead <= 0 {
		lead = DefaultLead
	}
	return &Planner{lead: lead}
}

// Plan returns the alert for the given sweep window, or false when the
// fire time has already passed. A reminder delivered after its moment is
// worse than none.
func (p *Planner) Plan(car model.ParkedCar, start, end, now time.Time) (Alert, bool) {
	fireAt := start.Add(-p.lead)
	if !fireAt.After(now) {
		return Alert{}, false
	}
	return Alert{
		DeviceID:   car.DeviceID,
		StreetName: car.StreetName,
		Location:   car.Location,
		SweepStart: start,
		SweepEnd:   end,
		FireAt:     fireAt,
	}, true
}
