package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/easystreet/sweepd/internal/model"
	"github.com/easystreet/sweepd/internal/observability"
)

const viewportQuery = `
SELECT s.id, s.street_name, s.coordinates,
       r.day_of_week, r.start_time, r.end_time, r.weeks_of_month, r.apply_on_holidays
FROM street_segments s
LEFT JOIN sweeping_rules r ON r.segment_id = s.id
WHERE s.lat_max >= ? AND s.lat_min <= ?
  AND s.lng_max >= ? AND s.lng_min <= ?`

const segmentByIDQuery = `
SELECT s.id, s.street_name, s.coordinates,
       r.day_of_week, r.start_time, r.end_time, r.weeks_of_month, r.apply_on_holidays
FROM street_segments s
LEFT JOIN sweeping_rules r ON r.segment_id = s.id
WHERE s.id = ?`

const searchQuery = `
SELECT street_name,
       AVG((lat_min + lat_max) / 2.0) AS center_lat,
       AVG((lng_min + lng_max) / 2.0) AS center_lng,
       COUNT(*) AS segment_count
FROM street_segments
WHERE street_name LIKE ?
GROUP BY street_name
ORDER BY street_name
LIMIT ?`

// SQLite serves queries against the bundled segment database opened
// read-only. The dataset is immutable for the lifetime of the process.
type SQLite struct {
	db *sql.DB
}

var _ Querier = (*SQLite)(nil)

// Open opens the segment database at path in read-only mode and verifies
// the connection.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open segment database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping segment database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// NewWithDB wraps an already opened database handle. Used by tests that
// build an in-memory dataset.
func NewWithDB(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping reports backing-store health for readiness checks.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) ViewportRows(ctx context.Context, box model.BoundingBox) ([]SegmentRow, error) {
	params := []Param{
		RealParam(box.LatMin), RealParam(box.LatMax),
		RealParam(box.LngMin), RealParam(box.LngMax),
	}
	return s.joinRows(ctx, "viewport", viewportQuery, params)
}

func (s *SQLite) SegmentRows(ctx context.Context, id string) ([]SegmentRow, error) {
	return s.joinRows(ctx, "segment_by_id", segmentByIDQuery, []Param{TextParam(id)})
}

func (s *SQLite) joinRows(ctx context.Context, op, query string, params []Param) ([]SegmentRow, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, bindArgs(params)...)
	observability.ObserveStoreQuery(op, err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	var out []SegmentRow
	for rows.Next() {
		var (
			row       SegmentRow
			dayOfWeek sql.NullInt64
			startTime sql.NullString
			endTime   sql.NullString
			weeksJSON sql.NullString
			holidays  sql.NullInt64
		)
		if err := rows.Scan(&row.ID, &row.StreetName, &row.CoordinatesJSON,
			&dayOfWeek, &startTime, &endTime, &weeksJSON, &holidays); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		// NULL rule columns mean the segment has no rules.
		if dayOfWeek.Valid {
			row.Rule = &RuleRow{
				DayOfWeek:       int(dayOfWeek.Int64),
				StartTime:       startTime.String,
				EndTime:         endTime.String,
				WeeksJSON:       weeksJSON.String,
				ApplyOnHolidays: holidays.Int64 != 0,
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

func (s *SQLite) SearchByName(ctx context.Context, query string, limit int) ([]model.StreetSearchResult, error) {
	start := time.Now()
	params := []Param{TextParam("%" + query + "%"), IntParam(int64(limit))}
	rows, err := s.db.QueryContext(ctx, searchQuery, bindArgs(params)...)
	observability.ObserveStoreQuery("search", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []model.StreetSearchResult
	for rows.Next() {
		var r model.StreetSearchResult
		if err := rows.Scan(&r.StreetName, &r.CenterLat, &r.CenterLng, &r.SegmentCount); err != nil {
			return nil, fmt.Errorf("search scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return out, nil
}

// Metadata reads one value from the dataset's metadata table.
func (s *SQLite) Metadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("metadata query: %w", err)
	}
	return value, true, nil
}
