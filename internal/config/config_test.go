package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8090" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.Timezone.String() != "America/Los_Angeles" {
		t.Fatalf("Timezone = %v", cfg.Timezone)
	}
	if cfg.NearestRadiusDeg != 0.005 || cfg.TapThresholdM != 50 {
		t.Fatalf("spatial defaults wrong: %+v", cfg)
	}
	if cfg.CoordCacheCap != 1000 || cfg.SearchLimit != 20 {
		t.Fatalf("cache defaults wrong: %+v", cfg)
	}
	if cfg.NotifyLead != 60*time.Minute {
		t.Fatalf("NotifyLead = %v", cfg.NotifyLead)
	}
	if cfg.Invalidation.Enabled {
		t.Fatal("invalidation should default off")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("TAP_THRESHOLD_M", "25.5")
	t.Setenv("NOTIFY_LEAD", "30m")
	t.Setenv("INVALIDATION_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.TapThresholdM != 25.5 || cfg.NotifyLead != 30*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.Invalidation.Enabled || len(cfg.Invalidation.Brokers) != 2 {
		t.Fatalf("invalidation overrides not applied: %+v", cfg.Invalidation)
	}
}

func TestFromEnv_BadTimezone(t *testing.T) {
	t.Setenv("TZ", "Not/AZone")
	if _, err := FromEnv(); err == nil {
		t.Fatal("unknown timezone must fail")
	}
}
