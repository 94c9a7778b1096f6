// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SweepingRule is one weekly recurrence window during which parking is
// prohibited. Weekday follows the store convention: 1=Sunday .. 7=Saturday.
// Times are kept as "HH:MM" strings exactly as the store provides them;
// malformed values surface as StatusUnknown at evaluation time rather than
// failing row loads.
type SweepingRule struct {
	Weekday         int
	StartTime       string
	EndTime         string
	WeeksOfMonth    []int // 1-5; empty means every week
	AppliesHolidays bool
}

// StartMinutes parses StartTime into a minute-of-day value.
func (r SweepingRule) StartMinutes() (int, error) {
	return parseClock(r.StartTime)
}

// EndMinutes parses EndTime into a minute-of-day value.
func (r SweepingRule) EndMinutes() (int, error) {
	return parseClock(r.EndTime)
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// DayName returns the user-facing weekday name for the rule.
func (r SweepingRule) DayName() string {
	days := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if r.Weekday < 1 || r.Weekday > 7 {
		return "Unknown"
	}
	return days[r.Weekday-1]
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox covers a segment's coordinate extent or a map viewport.
type BoundingBox struct {
	LatMin, LatMax float64
	LngMin, LngMax float64
}

// Intersects reports whether two boxes overlap, bounds inclusive.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.LatMax >= o.LatMin && b.LatMin <= o.LatMax &&
		b.LngMax >= o.LngMin && b.LngMin <= o.LngMax
}

// Expand grows the box by d degrees on every side.
func (b BoundingBox) Expand(d float64) BoundingBox {
	return BoundingBox{
		LatMin: b.LatMin - d, LatMax: b.LatMax + d,
		LngMin: b.LngMin - d, LngMax: b.LngMax + d,
	}
}

// BoxAround returns a box centered on p expanded by radius degrees.
func BoxAround(p LatLng, radius float64) BoundingBox {
	return BoundingBox{
		LatMin: p.Lat - radius, LatMax: p.Lat + radius,
		LngMin: p.Lng - radius, LngMax: p.Lng + radius,
	}
}

// StreetSegment is a contiguous street stretch with one name, an ordered
// coordinate path and zero or more sweeping rules. Rule order is preserved
// from the store; tie-breaks in evaluation depend on it.
type StreetSegment struct {
	ID          string
	StreetName  string
	Coordinates []LatLng
	Rules       []SweepingRule
}

// Bounds computes the bounding box over all coordinates.
// ok is false when the segment has no coordinates.
func (s StreetSegment) Bounds() (box BoundingBox, ok bool) {
	if len(s.Coordinates) == 0 {
		return BoundingBox{}, false
	}
	box = BoundingBox{
		LatMin: s.Coordinates[0].Lat, LatMax: s.Coordinates[0].Lat,
		LngMin: s.Coordinates[0].Lng, LngMax: s.Coordinates[0].Lng,
	}
	for _, c := range s.Coordinates[1:] {
		if c.Lat < box.LatMin {
			box.LatMin = c.Lat
		}
		if c.Lat > box.LatMax {
			box.LatMax = c.Lat
		}
		if c.Lng < box.LngMin {
			box.LngMin = c.Lng
		}
		if c.Lng > box.LngMax {
			box.LngMax = c.Lng
		}
	}
	return box, true
}

// StatusKind classifies "now" relative to a segment's sweeping rules.
type StatusKind int

const (
	StatusNoData StatusKind = iota
	StatusSafe
	StatusToday
	StatusImminent
	StatusUpcoming
	StatusUnknown
)

func (k StatusKind) String() string {
	switch k {
	case StatusNoData:
		return "no_data"
	case StatusSafe:
		return "safe"
	case StatusToday:
		return "today"
	case StatusImminent:
		return "imminent"
	case StatusUpcoming:
		return "upcoming"
	default:
		return "unknown"
	}
}

// SweepingStatus is the result of a status evaluation. Time and StreetName
// are meaningful only for Today, Imminent and Upcoming.
type SweepingStatus struct {
	Kind       StatusKind
	Time       time.Time
	StreetName string
}

// ColorStatus is the coarse urgency classification used for map rendering.
type ColorStatus int

const (
	ColorRed    ColorStatus = iota // sweeping today
	ColorOrange                    // sweeping tomorrow
	ColorYellow                    // sweeping in 2-3 days
	ColorGreen                     // nothing within 3 days
)

func (c ColorStatus) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorOrange:
		return "orange"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	default:
		return "unknown"
	}
}

// ColorPriority orders colors by urgency for hit-test tie-breaks:
// red(0) < orange(1) < yellow(2) < green(3) < anything else(4).
func ColorPriority(color string) int {
	switch color {
	case "red":
		return 0
	case "orange":
		return 1
	case "yellow":
		return 2
	case "green":
		return 3
	default:
		return 4
	}
}

// StreetSearchResult is one street-name match with the centroid of its
// segments' bounding-box midpoints.
type StreetSearchResult struct {
	StreetName   string  `json:"street_name"`
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	SegmentCount int     `json:"segment_count"`
}

// ParkedCar is the recorded parking state for one device.
type ParkedCar struct {
	DeviceID   string    `json:"device_id"`
	Location   LatLng    `json:"location"`
	StreetName string    `json:"street_name,omitempty"`
	ParkedAt   time.Time `json:"parked_at"`
}
