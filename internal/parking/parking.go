// Package parking persists per-device parked-car state.
package parking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/easystreet/sweepd/internal/model"
)

// ErrNotParked is returned when a device has no recorded parked car.
var ErrNotParked = errors.New("no parked car for device")

// Store is the parking-state backend. Implementations must treat device
// ids as opaque keys.
type Store interface {
	Park(ctx context.Context, car model.ParkedCar) error
	Get(ctx context.Context, deviceID string) (model.ParkedCar, error)
	Clear(ctx context.Context, deviceID string) error
}

// Memory is a process-local Store, used when no Redis address is
// configured and in tests.
type Memory struct {
	mu   sync.RWMutex
	cars map[string]model.ParkedCar
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{cars: make(map[string]model.ParkedCar)}
}

func (m *Memory) Park(_ context.Context, car model.ParkedCar) error {
	if car.DeviceID == "" {
		return errors.New("device id is required")
	}
	if car.ParkedAt.IsZero() {
		car.ParkedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.cars[car.DeviceID] = car
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, deviceID string) (model.ParkedCar, error) {
	m.mu.RLock()
	car, ok := m.cars[deviceID]
	m.mu.RUnlock()
	if !ok {
		return model.ParkedCar{}, ErrNotParked
	}
	return car, nil
}

func (m *Memory) Clear(_ context.Context, deviceID string) error {
	m.mu.Lock()
	delete(m.cars, deviceID)
	m.mu.Unlock()
	return nil
}
