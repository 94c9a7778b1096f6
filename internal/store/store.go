// Package store provides read-only access to the pre-populated street
// segment database.
package store

import (
	"context"

	"github.com/easystreet/sweepd/internal/model"
)

// RuleRow is one sweeping rule as stored, joined onto its segment row.
type RuleRow struct {
	DayOfWeek       int
	StartTime       string
	EndTime         string
	WeeksJSON       string
	ApplyOnHolidays bool
}

// SegmentRow is one row of the viewport join. A segment without rules
// yields a single row with a nil Rule (LEFT JOIN semantics); a segment with
// N rules yields N rows sharing the same ID.
type SegmentRow struct {
	ID              string
	StreetName      string
	CoordinatesJSON string
	Rule            *RuleRow
}

// Querier is the read-only query surface the spatial index consumes.
type Querier interface {
	// ViewportRows returns the join rows for all segments whose stored
	// bounding box intersects the given box, bounds inclusive.
	ViewportRows(ctx context.Context, box model.BoundingBox) ([]SegmentRow, error)
	// SegmentRows returns the join rows for a single segment id.
	SegmentRows(ctx context.Context, id string) ([]SegmentRow, error)
	// SearchByName matches street names by case-insensitive substring,
	// grouped by name with bounding-box-midpoint centroids, ordered
	// alphabetically and capped at limit.
	SearchByName(ctx context.Context, query string, limit int) ([]model.StreetSearchResult, error)
}

// ParamKind tags a query parameter's type at the store boundary.
type ParamKind int

const (
	ParamText ParamKind = iota
	ParamInt
	ParamReal
)

// Param is a tagged query parameter. The store binds only these three
// kinds; anything else the schema doesn't hold.
type Param struct {
	Kind ParamKind
	Text string
	Int  int64
	Real float64
}

func TextParam(s string) Param  { return Param{Kind: ParamText, Text: s} }
func IntParam(n int64) Param    { return Param{Kind: ParamInt, Int: n} }
func RealParam(f float64) Param { return Param{Kind: ParamReal, Real: f} }

func bindArgs(params []Param) []any {
	out := make([]any, len(params))
	for i, p := range params {
		switch p.Kind {
		case ParamInt:
			out[i] = p.Int
		case ParamReal:
			out[i] = p.Real
		default:
			out[i] = p.Text
		}
	}
	return out
}
