// Package hittest resolves tap points against rendered polylines in
// projected map coordinates.
package hittest

import (
	"math"

	"github.com/easystreet/sweepd/internal/model"
)

// earthRadius is the WGS84 equatorial radius in meters, matching the
// spherical Web Mercator projection used by map tiles.
const earthRadius = 6378137.0

// MapPoint is a position in Web Mercator meters.
type MapPoint struct {
	X, Y float64
}

// Project maps a WGS84 coordinate into Web Mercator meters.
func Project(p model.LatLng) MapPoint {
	x := earthRadius * p.Lng * math.Pi / 180
	lat := math.Max(-89.9, math.Min(89.9, p.Lat))
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return MapPoint{X: x, Y: y}
}

// latitude recovers the WGS84 latitude of a projected point, in radians.
func (p MapPoint) latitude() float64 {
	return 2*math.Atan(math.Exp(p.Y/earthRadius)) - math.Pi/2
}

// DistanceTo returns the ground distance in meters between two projected
// points. Mercator stretches distances by 1/cos(lat); scaling by the cosine
// of the midpoint latitude undoes that.
func (p MapPoint) DistanceTo(q MapPoint) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	scale := math.Cos((p.latitude() + q.latitude()) / 2)
	return math.Sqrt(dx*dx+dy*dy) * scale
}

// Polyline is a rendered segment path tagged with its urgency color and the
// segment it belongs to.
type Polyline struct {
	SegmentID string
	Color     string
	Points    []MapPoint
}

// PerpendicularDistance returns the ground distance in meters from a point
// to the line segment a-b. A zero-length segment degrades to point-to-point
// distance.
func PerpendicularDistance(p, a, b MapPoint) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))
	proj := MapPoint{X: a.X + t*dx, Y: a.Y + t*dy}
	return p.DistanceTo(proj)
}

// nearTolerance widens the winner selection so overlapping polylines of the
// same street (opposite curb sides share geometry) compete on urgency
// instead of sub-meter distance noise.
const nearTolerance = 5.0

// FindClosestPolyline returns the polyline nearest to the tap within
// thresholdMeters, preferring the most urgent color among near-equal
// candidates. Polylines with fewer than two points are ignored. Returns nil
// when nothing is in range. Ties on color break by input order.
func FindClosestPolyline(tap MapPoint, polylines []Polyline, thresholdMeters float64) *Polyline {
	type candidate struct {
		idx  int
		dist float64
	}
	var candidates []candidate

	for i := range polylines {
		pts := polylines[i].Points
		if len(pts) < 2 {
			continue
		}
		minDist := math.MaxFloat64
		for j := 0; j < len(pts)-1; j++ {
			if d := PerpendicularDistance(tap, pts[j], pts[j+1]); d < minDist {
				minDist = d
			}
		}
		if minDist < thresholdMeters {
			candidates = append(candidates, candidate{idx: i, dist: minDist})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0].dist
	for _, c := range candidates[1:] {
		if c.dist < best {
			best = c.dist
		}
	}

	var winner *Polyline
	winnerPriority := 0
	for _, c := range candidates {
		if c.dist > best+nearTolerance {
			continue
		}
		p := model.ColorPriority(polylines[c.idx].Color)
		if winner == nil || p < winnerPriority {
			winner = &polylines[c.idx]
			winnerPriority = p
		}
	}
	return winner
}
