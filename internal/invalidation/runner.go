package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"github.com/easystreet/sweepd/internal/observability"
)

// Resetter empties one cache. The runner calls every registered resetter
// when a republish event applies.
type Resetter interface {
	Reset()
}

// ResetterFunc adapts a bare function to Resetter.
type ResetterFunc func()

func (f ResetterFunc) Reset() { f() }

// Config drives the Kafka consumer group.
type Config struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

// Runner consumes republish events from Kafka and resets the registered
// caches, deduplicating replays by dataset version.
type Runner struct {
	log      *slog.Logger
	cfg      Config
	targets  []Resetter
	ver      *dedupe
	assigned atomic.Bool
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewRunner(cfg Config, logger *slog.Logger, targets ...Resetter) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		log:     logger,
		cfg:     cfg,
		targets: targets,
		ver:     newDedupe(4096),
	}
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("invalidation runner disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	if r.cfg.SessionTimeout > 0 {
		cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	}
	if r.cfg.Heartbeat > 0 {
		cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	}
	if r.cfg.RebalanceTimeout > 0 {
		cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	}
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("consumer group: %w", err)
	}

	h := &groupHandler{
		setup:   func(sarama.ConsumerGroupSession) { r.assigned.Store(true) },
		cleanup: func(sarama.ConsumerGroupSession) { r.assigned.Store(false) },
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()
		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("invalidation runner started",
		"topic", r.cfg.Topic, "group", r.cfg.GroupID, "brokers", r.cfg.Brokers)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("invalidation runner stopped")
}

// Ready reports whether the consumer currently holds a partition
// assignment.
func (r *Runner) Ready() bool {
	return r.assigned.Load()
}

func (r *Runner) handleMessage(_ context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("error")
		return fmt.Errorf("decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		observability.IncInvalidation("error")
		return fmt.Errorf("validate: %w", err)
	}
	if !r.ver.shouldApply(ev, msg.Value) {
		observability.IncInvalidation("skip_duplicate")
		r.log.Debug("duplicate republish event skipped",
			"dataset", ev.Dataset, "version", ev.Version)
		return nil
	}

	for _, t := range r.targets {
		t.Reset()
	}
	observability.IncInvalidation("applied")
	r.log.Info("caches reset after dataset republish",
		"dataset", ev.Dataset, "version", ev.Version)
	return nil
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
