package bus

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

type failingBus struct{ published int }

func (f *failingBus) Publish(context.Context, realtime.SSEMessage) error {
	f.published++
	return errors.New("down")
}
func (f *failingBus) StartForwarder(context.Context, func(realtime.SSEMessage)) error { return nil }
func (f *failingBus) Close() error                                                    { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestEmitterFallsBackToLocalHub(t *testing.T) {
	log := testLogger(t)
	hub := realtime.NewSSEHub(log)
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "u")

	fb := &failingBus{}
	NewEmitter(fb, hub, log).Emit(realtime.SSEMessage{Channel: "u", Event: realtime.SSEEventCoursePublished})

	if fb.published != 1 {
		t.Fatalf("publish attempts: want=1 got=%d", fb.published)
	}
	select {
	case msg := <-client.Outbound:
		if msg.Event != realtime.SSEEventCoursePublished {
			t.Fatalf("event: want=%s got=%s", realtime.SSEEventCoursePublished, msg.Event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected local delivery")
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	b, err := NewRedisBus(testLogger(t), rdb, "sse-test-"+uuid.NewString())
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan realtime.SSEMessage, 1)
	if err := b.StartForwarder(ctx, func(m realtime.SSEMessage) { got <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(ctx, realtime.SSEMessage{Channel: "u", Event: realtime.SSEEventAssistantReply}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case m := <-got:
		if m.Event != realtime.SSEEventAssistantReply {
			t.Fatalf("event: want=%s got=%s", realtime.SSEEventAssistantReply, m.Event)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for forwarded message")
	}
}
