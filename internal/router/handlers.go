package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/easystreet/sweepd/internal/countdown"
	"github.com/easystreet/sweepd/internal/engine"
	"github.com/easystreet/sweepd/internal/hittest"
	"github.com/easystreet/sweepd/internal/model"
	"github.com/easystreet/sweepd/internal/notify"
	"github.com/easystreet/sweepd/internal/observability"
	"github.com/easystreet/sweepd/internal/parking"
	"github.com/easystreet/sweepd/internal/render"
	"github.com/easystreet/sweepd/internal/schedule"
	"github.com/easystreet/sweepd/internal/spatial"
)

// API serves the map-client query surface.
type API struct {
	Index   *spatial.Index
	Engine  *engine.Engine
	Eval    *schedule.Evaluator
	Colors  *render.ColorCache
	Parking parking.Store
	Planner *notify.Planner
	// Publisher may be nil when no broker is configured; park events then
	// skip alert delivery.
	Publisher notify.Publisher
	Logger    *slog.Logger

	TapThresholdM float64
	NearestRadius float64
	SearchLimit   int
	Timezone      *time.Location

	// Now is replaceable in tests.
	Now func() time.Time
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now().In(a.loc())
	}
	return time.Now().In(a.loc())
}

func (a *API) loc() *time.Location {
	if a.Timezone != nil {
		return a.Timezone
	}
	return time.Local
}

// Routes mounts the query surface on a chi router.
func (a *API) Routes(r chi.Router) {
	r.Get("/segments", a.handleSegments)
	r.Get("/segments/{id}", a.handleSegmentByID)
	r.Get("/status", a.handleStatus)
	r.Get("/search", a.handleSearch)
	r.Post("/park", a.handlePark)
	r.Get("/park/{deviceID}", a.handleGetParked)
	r.Delete("/park/{deviceID}", a.handleUnpark)
}

type segmentView struct {
	ID          string               `json:"id"`
	StreetName  string               `json:"street_name"`
	Coordinates []model.LatLng       `json:"coordinates"`
	Color       string               `json:"color"`
	Rules       []model.SweepingRule `json:"rules,omitempty"`
}

type statusView struct {
	SegmentID  string `json:"segment_id,omitempty"`
	StreetName string `json:"street_name,omitempty"`
	Status     string `json:"status"`
	Color      string `json:"color,omitempty"`
	Time       string `json:"time,omitempty"`
	Countdown  string `json:"countdown,omitempty"`
}

type parkView struct {
	Car    model.ParkedCar `json:"car"`
	Status statusView      `json:"status"`
	Alert  *notify.Alert   `json:"alert,omitempty"`
}

func (a *API) handleSegments(w http.ResponseWriter, r *http.Request) {
	box, err := ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		http.Error(w, "invalid bbox: "+err.Error(), http.StatusBadRequest)
		return
	}

	now := a.now()
	segs := a.Index.SegmentsInViewport(r.Context(), box)
	out := make([]segmentView, 0, len(segs))
	for i := range segs {
		out = append(out, segmentView{
			ID:          segs[i].ID,
			StreetName:  segs[i].StreetName,
			Coordinates: segs[i].Coordinates,
			Color:       a.Colors.Color(segs[i], now).String(),
			Rules:       segs[i].Rules,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleSegmentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	seg := a.Index.SegmentByID(r.Context(), id)
	if seg == nil {
		http.Error(w, "segment not found", http.StatusNotFound)
		return
	}
	now := a.now()
	writeJSON(w, http.StatusOK, segmentView{
		ID:          seg.ID,
		StreetName:  seg.StreetName,
		Coordinates: seg.Coordinates,
		Color:       a.Colors.Color(*seg, now).String(),
		Rules:       seg.Rules,
	})
}

// handleStatus resolves a tapped or parked point to the segment whose
// polyline passes closest, then classifies it.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePoint(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := a.now()
	seg := a.segmentAt(r.Context(), p, now)
	if seg == nil {
		writeJSON(w, http.StatusOK, statusView{Status: model.StatusNoData.String()})
		return
	}
	writeJSON(w, http.StatusOK, a.statusFor(seg, now))
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "missing required parameter: q", http.StatusBadRequest)
		return
	}
	results := a.Index.SearchByName(r.Context(), q, a.SearchLimit)
	if results == nil {
		results = []model.StreetSearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

type parkRequest struct {
	DeviceID string  `json:"device_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

func (a *API) handlePark(w http.ResponseWriter, r *http.Request) {
	var req parkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DeviceID == "" {
		http.Error(w, "device_id is required", http.StatusBadRequest)
		return
	}

	now := a.now()
	p := model.LatLng{Lat: req.Lat, Lng: req.Lng}
	seg := a.Index.NearestSegment(r.Context(), p, a.NearestRadius)

	car := model.ParkedCar{
		DeviceID: req.DeviceID,
		Location: p,
		ParkedAt: now.UTC(),
	}
	if seg != nil {
		car.StreetName = seg.StreetName
	}
	if err := a.Parking.Park(r.Context(), car); err != nil {
		a.Logger.Error("park failed", "device_id", req.DeviceID, "err", err)
		http.Error(w, "could not store parking state", http.StatusInternalServerError)
		return
	}

	view := parkView{Car: car, Status: statusView{Status: model.StatusNoData.String()}}
	if seg != nil {
		view.Status = a.statusFor(seg, now)
		view.Alert = a.planAlert(r.Context(), car, seg, now)
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *API) handleGetParked(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	car, err := a.Parking.Get(r.Context(), deviceID)
	if errors.Is(err, parking.ErrNotParked) {
		http.Error(w, "no parked car", http.StatusNotFound)
		return
	}
	if err != nil {
		a.Logger.Error("parking lookup failed", "device_id", deviceID, "err", err)
		http.Error(w, "could not load parking state", http.StatusInternalServerError)
		return
	}

	now := a.now()
	view := parkView{Car: car, Status: statusView{Status: model.StatusNoData.String()}}
	if seg := a.segmentAt(r.Context(), car.Location, now); seg != nil {
		view.Status = a.statusFor(seg, now)
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleUnpark(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	if err := a.Parking.Clear(r.Context(), deviceID); err != nil {
		a.Logger.Error("unpark failed", "device_id", deviceID, "err", err)
		http.Error(w, "could not clear parking state", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// segmentAt hit-tests nearby polylines, colored for today, and returns
// the owning segment. Urgent colors win near-ties so a tap between a red
// and a green curb resolves to the one that matters.
func (a *API) segmentAt(ctx context.Context, p model.LatLng, now time.Time) *model.StreetSegment {
	candidates := a.Index.SegmentsInViewport(ctx, model.BoxAround(p, a.NearestRadius))
	if len(candidates) == 0 {
		return nil
	}

	polylines := make([]hittest.Polyline, 0, len(candidates))
	for i := range candidates {
		points := make([]hittest.MapPoint, 0, len(candidates[i].Coordinates))
		for _, c := range candidates[i].Coordinates {
			points = append(points, hittest.Project(c))
		}
		polylines = append(polylines, hittest.Polyline{
			SegmentID: candidates[i].ID,
			Color:     a.Colors.Color(candidates[i], now).String(),
			Points:    points,
		})
	}

	hit := hittest.FindClosestPolyline(hittest.Project(p), polylines, a.TapThresholdM)
	if hit == nil {
		return nil
	}
	for i := range candidates {
		if candidates[i].ID == hit.SegmentID {
			return &candidates[i]
		}
	}
	return nil
}

func (a *API) statusFor(seg *model.StreetSegment, now time.Time) statusView {
	status := a.Engine.Status(seg, now)
	observability.IncStatusEvaluation(status.Kind.String())

	view := statusView{
		SegmentID:  seg.ID,
		StreetName: seg.StreetName,
		Status:     status.Kind.String(),
		Color:      a.Eval.ColorStatus(*seg, now).String(),
	}
	if !status.Time.IsZero() {
		view.Time = status.Time.Format(time.RFC3339)
	}
	if start, end, ok := a.Eval.NextWindow(*seg, now); ok {
		view.Countdown = countdown.Until(start, end, now)
	}
	return view
}

// planAlert publishes a sweep reminder for the parked car. Delivery is
// best effort; a broker outage never fails the park request.
func (a *API) planAlert(ctx context.Context, car model.ParkedCar, seg *model.StreetSegment, now time.Time) *notify.Alert {
	if a.Planner == nil {
		return nil
	}
	start, end, ok := a.Eval.NextWindow(*seg, now)
	if !ok {
		return nil
	}
	alert, ok := a.Planner.Plan(car, start, end, now)
	if !ok {
		return nil
	}
	if a.Publisher != nil {
		if err := a.Publisher.Publish(ctx, alert); err != nil {
			a.Logger.Error("alert publish failed", "device_id", car.DeviceID, "err", err)
		}
	}
	return &alert
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
