package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/easystreet/sweepd/internal/app/server"
	"github.com/easystreet/sweepd/internal/config"
	"github.com/easystreet/sweepd/internal/engine"
	"github.com/easystreet/sweepd/internal/health"
	"github.com/easystreet/sweepd/internal/holiday"
	"github.com/easystreet/sweepd/internal/invalidation"
	"github.com/easystreet/sweepd/internal/logger"
	"github.com/easystreet/sweepd/internal/notify"
	"github.com/easystreet/sweepd/internal/observability"
	"github.com/easystreet/sweepd/internal/parking"
	"github.com/easystreet/sweepd/internal/render"
	"github.com/easystreet/sweepd/internal/router"
	"github.com/easystreet/sweepd/internal/schedule"
	"github.com/easystreet/sweepd/internal/spatial"
	"github.com/easystreet/sweepd/internal/store"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromEnv()
	if err != nil {
		logFatal := logger.Build(logger.Config{Level: "error", Component: "sweepd"}, os.Stdout)
		logFatal.Error().Err(err).Msg("configuration")
		return 1
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "sweepd",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting sweepd",
		"addr", cfg.Addr,
		"version", Version,
		"db", cfg.DBPath,
		"tz", cfg.Timezone.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		appLog.Error("open segment store", "err", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	if v, ok, err := db.Metadata(ctx, "dataset_version"); err != nil {
		appLog.Warn("read dataset metadata", "err", err)
	} else if ok {
		appLog.Info("segment dataset loaded", "dataset_version", v)
	}

	calendar := holiday.NewCalendar()
	eval := schedule.NewEvaluator(calendar)
	statusEngine := engine.New(eval, calendar)
	index := spatial.New(db, appLog, spatial.WithCacheCapacity(cfg.CoordCacheCap))
	colors := render.NewColorCache(eval, cfg.ColorCacheSize)

	checks := map[string]health.Check{
		"store": db.Ping,
	}

	var parkStore parking.Store
	if cfg.RedisAddr != "" {
		rs, err := parking.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("connect redis", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rs.Close() }()
		checks["redis"] = rs.Ping
		parkStore = rs
		appLog.Info("parking state on redis", "addr", cfg.RedisAddr)
	} else {
		parkStore = parking.NewMemory()
		appLog.Info("parking state in memory")
	}

	var publisher notify.Publisher
	if cfg.NATSURL != "" {
		np, err := notify.NewNATSPublisher(cfg.NATSURL, appLog)
		if err != nil {
			appLog.Error("connect nats", "url", cfg.NATSURL, "err", err)
			return 1
		}
		defer np.Close()
		publisher = np
		appLog.Info("alerts on nats", "url", cfg.NATSURL)
	}

	runner := invalidation.NewRunner(invalidation.Config{
		Enabled:          cfg.Invalidation.Enabled,
		Brokers:          cfg.Invalidation.Brokers,
		Topic:            cfg.Invalidation.Topic,
		GroupID:          cfg.Invalidation.GroupID,
		SessionTimeout:   cfg.Invalidation.SessionTimeout,
		Heartbeat:        cfg.Invalidation.Heartbeat,
		RebalanceTimeout: cfg.Invalidation.RebalanceTimeout,
		InitialOldest:    cfg.Invalidation.InitialOldest,
	}, appLog,
		invalidation.ResetterFunc(index.ResetCoordinateCache),
		invalidation.ResetterFunc(colors.Reset),
	)
	if err := runner.Start(ctx); err != nil {
		appLog.Error("start invalidation runner", "err", err)
		return 1
	}
	defer runner.Stop()

	api := &router.API{
		Index:         index,
		Engine:        statusEngine,
		Eval:          eval,
		Colors:        colors,
		Parking:       parkStore,
		Planner:       notify.NewPlanner(cfg.NotifyLead),
		Publisher:     publisher,
		Logger:        appLog,
		TapThresholdM: cfg.TapThresholdM,
		NearestRadius: cfg.NearestRadiusDeg,
		SearchLimit:   cfg.SearchLimit,
		Timezone:      cfg.Timezone,
		Now:           time.Now,
	}

	if err := server.Run(ctx, cfg, appLog, server.Deps{API: api, Checks: checks}); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
