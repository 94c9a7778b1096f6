// Package spatial answers viewport and nearest-segment queries against the
// segment store.
package spatial

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/easystreet/sweepd/internal/hittest"
	"github.com/easystreet/sweepd/internal/model"
	"github.com/easystreet/sweepd/internal/store"
)

// DefaultNearestRadiusDeg is the half-width in degrees of the candidate box
// for nearest-segment lookups, roughly 550 m of latitude.
const DefaultNearestRadiusDeg = 0.005

// defaultCacheCapacity bounds the coordinate-parse cache.
const defaultCacheCapacity = 1000

// Index wraps the segment store with row grouping, coordinate parsing and
// the bounded parse cache. Store failures never escape: every query
// degrades to an empty result, logged.
type Index struct {
	querier store.Querier
	logger  *slog.Logger
	coords  *coordCache
}

type Option func(*Index)

// WithCacheCapacity overrides the coordinate cache capacity.
func WithCacheCapacity(n int) Option {
	return func(ix *Index) { ix.coords = newCoordCache(n) }
}

func New(q store.Querier, logger *slog.Logger, opts ...Option) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{
		querier: q,
		logger:  logger,
		coords:  newCoordCache(defaultCacheCapacity),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// SegmentsInViewport returns all segments intersecting the box. Rows
// sharing a segment id collapse into one segment carrying all its rules;
// first-seen row order is preserved so downstream tie-breaks stay stable.
func (ix *Index) SegmentsInViewport(ctx context.Context, box model.BoundingBox) []model.StreetSegment {
	rows, err := ix.querier.ViewportRows(ctx, box)
	if err != nil {
		ix.logger.Error("viewport query failed", "err", err)
		return nil
	}
	return ix.groupRows(rows)
}

// SegmentByID loads one segment with all its rules, or nil.
func (ix *Index) SegmentByID(ctx context.Context, id string) *model.StreetSegment {
	rows, err := ix.querier.SegmentRows(ctx, id)
	if err != nil {
		ix.logger.Error("segment lookup failed", "id", id, "err", err)
		return nil
	}
	segs := ix.groupRows(rows)
	if len(segs) == 0 {
		return nil
	}
	return &segs[0]
}

// NearestSegment finds the segment owning the coordinate closest to p
// within a box expanded by radius degrees. Distances compare as squared
// planar lengths in projected map coordinates; the first-seen segment wins
// ties. Returns nil when no candidate has coordinates.
func (ix *Index) NearestSegment(ctx context.Context, p model.LatLng, radius float64) *model.StreetSegment {
	if radius <= 0 {
		radius = DefaultNearestRadiusDeg
	}
	candidates := ix.SegmentsInViewport(ctx, model.BoxAround(p, radius))

	target := hittest.Project(p)
	var (
		best   *model.StreetSegment
		bestSq float64
	)
	for i := range candidates {
		for _, c := range candidates[i].Coordinates {
			pt := hittest.Project(c)
			dx := target.X - pt.X
			dy := target.Y - pt.Y
			sq := dx*dx + dy*dy
			if best == nil || sq < bestSq {
				best = &candidates[i]
				bestSq = sq
			}
		}
	}
	return best
}

// SearchByName proxies the store's grouped name search, degrading to an
// empty result on failure.
func (ix *Index) SearchByName(ctx context.Context, query string, limit int) []model.StreetSearchResult {
	results, err := ix.querier.SearchByName(ctx, query, limit)
	if err != nil {
		ix.logger.Error("street search failed", "query", query, "err", err)
		return nil
	}
	return results
}

// ResetCoordinateCache drops all cached coordinate parses. Called when the
// dataset is republished.
func (ix *Index) ResetCoordinateCache() {
	ix.coords.clear()
}

// CachedCoordinateCount reports the current parse-cache population.
func (ix *Index) CachedCoordinateCount() int {
	return ix.coords.len()
}

func (ix *Index) groupRows(rows []store.SegmentRow) []model.StreetSegment {
	var (
		order []string
		byID  = make(map[string]*model.StreetSegment)
	)
	for _, row := range rows {
		seg, ok := byID[row.ID]
		if !ok {
			seg = &model.StreetSegment{
				ID:          row.ID,
				StreetName:  row.StreetName,
				Coordinates: ix.parseCoordinates(row.ID, row.CoordinatesJSON),
			}
			byID[row.ID] = seg
			order = append(order, row.ID)
		}
		if row.Rule != nil {
			seg.Rules = append(seg.Rules, model.SweepingRule{
				Weekday:         row.Rule.DayOfWeek,
				StartTime:       row.Rule.StartTime,
				EndTime:         row.Rule.EndTime,
				WeeksOfMonth:    ix.parseWeeks(row.ID, row.Rule.WeeksJSON),
				AppliesHolidays: row.Rule.ApplyOnHolidays,
			})
		}
	}

	out := make([]model.StreetSegment, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// parseCoordinates decodes the "[[lat,lng],...]" payload, consulting the
// bounded cache first. Malformed payloads decode to an empty path.
func (ix *Index) parseCoordinates(id, payload string) []model.LatLng {
	if cached, ok := ix.coords.get(id); ok {
		return cached
	}
	var raw [][]float64
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		ix.logger.Warn("malformed coordinate payload", "id", id, "err", err)
		raw = nil
	}
	coords := make([]model.LatLng, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		coords = append(coords, model.LatLng{Lat: pair[0], Lng: pair[1]})
	}
	ix.coords.put(id, coords)
	return coords
}

func (ix *Index) parseWeeks(id, payload string) []int {
	if payload == "" {
		return nil
	}
	var weeks []int
	if err := json.Unmarshal([]byte(payload), &weeks); err != nil {
		ix.logger.Warn("malformed weeks payload", "id", id, "err", err)
		return nil
	}
	return weeks
}
