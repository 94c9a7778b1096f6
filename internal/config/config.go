// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

type Config struct {
	Addr     string
	LogLevel string

	DBPath   string
	Timezone *time.Location

	NearestRadiusDeg float64
	CoordCacheCap    int
	ColorCacheSize   int
	TapThresholdM    float64
	SearchLimit      int

	NotifyLead time.Duration
	RedisAddr  string
	NATSURL    string

	Invalidation InvalidationCfg
}

// FromEnv reads configuration, loading a .env file first when present.
// Unset variables fall back to defaults tuned for the San Francisco
// dataset. An unknown TZ name is the only fatal condition: evaluating
// sweep schedules in the wrong timezone is worse than failing to start.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	tzName := getenv("TZ", "America/Los_Angeles")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBPath:   getenv("DB_PATH", "data/sweeping.db"),
		Timezone: loc,

		NearestRadiusDeg: getfloat("NEAREST_RADIUS_DEG", 0.005),
		CoordCacheCap:    getint("COORD_CACHE_CAP", 1000),
		ColorCacheSize:   getint("COLOR_CACHE_SIZE", 4096),
		TapThresholdM:    getfloat("TAP_THRESHOLD_M", 50),
		SearchLimit:      getint("SEARCH_LIMIT", 20),

		NotifyLead: getduration("NOTIFY_LEAD", 60*time.Minute),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		NATSURL:    os.Getenv("NATS_URL"),

		Invalidation: InvalidationCfg{
			Enabled:          getbool("INVALIDATION_ENABLED", false),
			Brokers:          split(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:            getenv("KAFKA_TOPIC", "dataset-republish"),
			GroupID:          getenv("KAFKA_GROUP_ID", "sweepd"),
			SessionTimeout:   getduration("KAFKA_SESSION_TIMEOUT", 30*time.Second),
			Heartbeat:        getduration("KAFKA_HEARTBEAT", 3*time.Second),
			RebalanceTimeout: getduration("KAFKA_REBALANCE_TIMEOUT", 30*time.Second),
			InitialOldest:    getbool("KAFKA_INITIAL_OLDEST", true),
		},
	}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
