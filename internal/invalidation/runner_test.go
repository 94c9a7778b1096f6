package invalidation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

type countingResetter struct {
	mu    sync.Mutex
	count int
}

func (c *countingResetter) Reset() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func (c *countingResetter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func republishMsg(t *testing.T, ev Event) *sarama.ConsumerMessage {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &sarama.ConsumerMessage{
		Topic:     "t",
		Partition: 0,
		Offset:    1,
		Timestamp: time.Now().UTC(),
		Value:     b,
	}
}

func TestHandleMessage_ResetsAllTargets(t *testing.T) {
	a := &countingResetter{}
	b := &countingResetter{}
	r := NewRunner(Config{}, quiet(), a, b)

	msg := republishMsg(t, Event{Dataset: "sf-sweeping", Version: 1})
	if err := r.handleMessage(context.Background(), msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if a.Count() != 1 || b.Count() != 1 {
		t.Fatalf("resets = %d, %d; want 1, 1", a.Count(), b.Count())
	}
}

func TestHandleMessage_DeduplicatesByVersion(t *testing.T) {
	a := &countingResetter{}
	r := NewRunner(Config{}, quiet(), a)
	ctx := context.Background()

	msg := republishMsg(t, Event{Dataset: "sf-sweeping", Version: 3})
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	// Redelivery of the same version is a no-op.
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("second handleMessage: %v", err)
	}
	// An older version arriving late is also a no-op.
	if err := r.handleMessage(ctx, republishMsg(t, Event{Dataset: "sf-sweeping", Version: 2})); err != nil {
		t.Fatalf("stale handleMessage: %v", err)
	}
	if a.Count() != 1 {
		t.Fatalf("resets = %d, want 1", a.Count())
	}

	// A newer version applies again.
	if err := r.handleMessage(ctx, republishMsg(t, Event{Dataset: "sf-sweeping", Version: 4})); err != nil {
		t.Fatalf("newer handleMessage: %v", err)
	}
	if a.Count() != 2 {
		t.Fatalf("resets = %d, want 2", a.Count())
	}
}

func TestHandleMessage_UnversionedDedupesByPayload(t *testing.T) {
	a := &countingResetter{}
	r := NewRunner(Config{}, quiet(), a)
	ctx := context.Background()

	msg := republishMsg(t, Event{Dataset: "sf-sweeping"})
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("second handleMessage: %v", err)
	}
	if a.Count() != 1 {
		t.Fatalf("resets = %d, want 1", a.Count())
	}

	// A different unversioned payload is a fresh event.
	other := republishMsg(t, Event{Dataset: "sf-sweeping", Op: "refresh"})
	if err := r.handleMessage(ctx, other); err != nil {
		t.Fatalf("third handleMessage: %v", err)
	}
	if a.Count() != 2 {
		t.Fatalf("resets = %d, want 2", a.Count())
	}
}

func TestHandleMessage_RejectsBadPayloads(t *testing.T) {
	a := &countingResetter{}
	r := NewRunner(Config{}, quiet(), a)
	ctx := context.Background()

	bad := &sarama.ConsumerMessage{Value: []byte("not json")}
	if err := r.handleMessage(ctx, bad); err == nil {
		t.Fatal("malformed payload should error")
	}
	if err := r.handleMessage(ctx, republishMsg(t, Event{Version: 1})); err == nil {
		t.Fatal("event without dataset should error")
	}
	if a.Count() != 0 {
		t.Fatalf("resets = %d, want 0", a.Count())
	}
}

func TestStart_DisabledIsNoop(t *testing.T) {
	r := NewRunner(Config{Enabled: false}, quiet())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if r.Ready() {
		t.Fatal("disabled runner must not report ready")
	}
	r.Stop()
}

func TestResetterFunc(t *testing.T) {
	called := false
	ResetterFunc(func() { called = true }).Reset()
	if !called {
		t.Fatal("ResetterFunc did not invoke the function")
	}
}
