// Package router parses API requests and serves the query surface.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/easystreet/sweepd/internal/model"
)

// ParseBBox validates a "latMin,latMax,lngMin,lngMax" viewport parameter.
func ParseBBox(raw string) (model.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.BoundingBox{}, errors.New("expected 4 comma-separated values: latMin,latMax,lngMin,lngMax")
	}
	latMin, err := parseFloat(parts[0])
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("latMin: %w", err)
	}
	latMax, err := parseFloat(parts[1])
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("latMax: %w", err)
	}
	lngMin, err := parseFloat(parts[2])
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("lngMin: %w", err)
	}
	lngMax, err := parseFloat(parts[3])
	if err != nil {
		return model.BoundingBox{}, fmt.Errorf("lngMax: %w", err)
	}

	if latMin < -90 || latMax > 90 || latMin > latMax {
		return model.BoundingBox{}, errors.New("latitude must satisfy -90 <= latMin <= latMax <= 90")
	}
	if lngMin < -180 || lngMax > 180 || lngMin > lngMax {
		return model.BoundingBox{}, errors.New("longitude must satisfy -180 <= lngMin <= lngMax <= 180")
	}
	return model.BoundingBox{LatMin: latMin, LatMax: latMax, LngMin: lngMin, LngMax: lngMax}, nil
}

// ParsePoint validates lat/lng query parameters.
func ParsePoint(r *http.Request) (model.LatLng, error) {
	lat, err := parseFloat(r.URL.Query().Get("lat"))
	if err != nil {
		return model.LatLng{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFloat(r.URL.Query().Get("lng"))
	if err != nil {
		return model.LatLng{}, fmt.Errorf("lng: %w", err)
	}
	if lat < -90 || lat > 90 {
		return model.LatLng{}, errors.New("latitude must be in [-90,90]")
	}
	if lng < -180 || lng > 180 {
		return model.LatLng{}, errors.New("longitude must be in [-180,180]")
	}
	return model.LatLng{Lat: lat, Lng: lng}, nil
}

func parseFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("missing value")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
