package parking

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/easystreet/sweepd/internal/model"
)

func newMini(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rs, err := NewRedis(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })
	return rs
}

func testCar() model.ParkedCar {
	return model.ParkedCar{
		DeviceID:   "device-1",
		Location:   model.LatLng{Lat: 37.78, Lng: -122.41},
		StreetName: "Market St",
		ParkedAt:   time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
	}
}

func runStoreSuite(t *testing.T, s Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := s.Get(ctx, "device-1"); !errors.Is(err, ErrNotParked) {
		t.Fatalf("Get before Park: err = %v, want ErrNotParked", err)
	}

	car := testCar()
	if err := s.Park(ctx, car); err != nil {
		t.Fatalf("Park: %v", err)
	}

	got, err := s.Get(ctx, "device-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != car {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, car)
	}

	// Re-parking overwrites.
	car.Location = model.LatLng{Lat: 37.76, Lng: -122.42}
	car.StreetName = "Mission St"
	if err := s.Park(ctx, car); err != nil {
		t.Fatalf("Park (update): %v", err)
	}
	got, err = s.Get(ctx, "device-1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.StreetName != "Mission St" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.Clear(ctx, "device-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Get(ctx, "device-1"); !errors.Is(err, ErrNotParked) {
		t.Fatalf("Get after Clear: err = %v, want ErrNotParked", err)
	}

	// Clearing an absent device is not an error.
	if err := s.Clear(ctx, "device-1"); err != nil {
		t.Fatalf("Clear (absent): %v", err)
	}

	if err := s.Park(ctx, model.ParkedCar{}); err == nil {
		t.Fatal("Park without device id should fail")
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, newMini(t))
}

func TestRedisStore_DevicesAreIsolated(t *testing.T) {
	rs := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a := testCar()
	b := testCar()
	b.DeviceID = "device-2"
	b.StreetName = "Valencia St"
	if err := rs.Park(ctx, a); err != nil {
		t.Fatalf("Park a: %v", err)
	}
	if err := rs.Park(ctx, b); err != nil {
		t.Fatalf("Park b: %v", err)
	}
	if err := rs.Clear(ctx, a.DeviceID); err != nil {
		t.Fatalf("Clear a: %v", err)
	}
	got, err := rs.Get(ctx, b.DeviceID)
	if err != nil || got.StreetName != "Valencia St" {
		t.Fatalf("device-2 state lost: %+v, %v", got, err)
	}
}

func TestParkDefaultsParkedAt(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	car := testCar()
	car.ParkedAt = time.Time{}
	if err := m.Park(ctx, car); err != nil {
		t.Fatalf("Park: %v", err)
	}
	got, err := m.Get(ctx, car.DeviceID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ParkedAt.IsZero() {
		t.Fatal("ParkedAt should default to now")
	}
}
