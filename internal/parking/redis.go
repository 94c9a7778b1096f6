package parking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easystreet/sweepd/internal/model"
)

const keyPrefix = "park:"

// defaultTTL bounds how long a forgotten parked-car record survives.
// Street sweeping repeats within a month, so stale state past that is
// meaningless.
const defaultTTL = 31 * 24 * time.Hour

type RedisOption func(*Redis)

// WithTTL overrides the record expiry. Zero disables expiry.
func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

func WithClientOptions(f func(*redis.Options)) RedisOption {
	return func(r *Redis) { r.clientOpts = f }
}

// Redis stores parked-car state in Redis, one JSON value per device.
type Redis struct {
	rdb        *redis.Client
	ttl        time.Duration
	clientOpts func(*redis.Options)
}

var _ Store = (*Redis)(nil)

func NewRedis(ctx context.Context, addr string, opts ...RedisOption) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	r := &Redis{ttl: defaultTTL}
	for _, o := range opts {
		o(r)
	}

	ro := &redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	}
	if r.clientOpts != nil {
		r.clientOpts(ro)
	}
	r.rdb = redis.NewClient(ro)

	if err := r.rdb.Ping(ctx).Err(); err != nil {
		_ = r.rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return r, nil
}

func (r *Redis) Park(ctx context.Context, car model.ParkedCar) error {
	if car.DeviceID == "" {
		return errors.New("device id is required")
	}
	if car.ParkedAt.IsZero() {
		car.ParkedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(car)
	if err != nil {
		return fmt.Errorf("encode parked car: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+car.DeviceID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %q: %w", keyPrefix+car.DeviceID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, deviceID string) (model.ParkedCar, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+deviceID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ParkedCar{}, ErrNotParked
	}
	if err != nil {
		return model.ParkedCar{}, fmt.Errorf("redis GET %q: %w", keyPrefix+deviceID, err)
	}
	var car model.ParkedCar
	if err := json.Unmarshal(raw, &car); err != nil {
		return model.ParkedCar{}, fmt.Errorf("decode parked car: %w", err)
	}
	return car, nil
}

func (r *Redis) Clear(ctx context.Context, deviceID string) error {
	if err := r.rdb.Del(ctx, keyPrefix+deviceID).Err(); err != nil {
		return fmt.Errorf("redis DEL %q: %w", keyPrefix+deviceID, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if err := r.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
