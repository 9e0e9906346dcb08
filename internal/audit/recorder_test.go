package audit

import (
	"context"
	"testing"
	"time"

	"github.com/smurfatcher/harrier/internal/bus"
	"github.com/smurfatcher/harrier/internal/domain"
)

func waitForEvents(t *testing.T, r *Recorder, sessionID string, want int) []Event {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		events := r.Events(sessionID)
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(r.Events(sessionID)))
	return nil
}

func TestRecorderCapturesLifecycleEvents(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	r := NewRecorder(b, 10)
	defer r.Stop()

	if err := r.Follow("sess-1"); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	ctx := context.Background()
	b.Publish(ctx, "sess-1", domain.TopicCaseLoaded, []byte(`{"caseId":"CASE-1"}`))
	b.Publish(ctx, "sess-1", domain.TopicInsightsGenerated, []byte(`{"caseId":"CASE-1"}`))

	events := waitForEvents(t, r, "sess-1", 2)
	if events[0].Topic != domain.TopicCaseLoaded {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Topic != domain.TopicInsightsGenerated {
		t.Errorf("unexpected second event: %+v", events[1])
	}
	if events[0].Timestamp == "" || events[0].ID == "" {
		t.Errorf("event missing identity: %+v", events[0])
	}
}

func TestRecorderSessionIsolation(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	r := NewRecorder(b, 10)
	defer r.Stop()

	r.Follow("sess-1")
	r.Follow("sess-2")

	ctx := context.Background()
	b.Publish(ctx, "sess-1", domain.TopicCaseLoaded, []byte("{}"))

	waitForEvents(t, r, "sess-1", 1)
	if got := len(r.Events("sess-2")); got != 0 {
		t.Errorf("events leaked across sessions: %d", got)
	}
}

func TestRecorderBoundedTrail(t *testing.T) {
	b := bus.NewChannelBus(100)
	defer b.Close()

	r := NewRecorder(b, 3)
	defer r.Stop()
	r.Follow("sess-1")

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		b.Publish(ctx, "sess-1", domain.TopicCaseLoaded, []byte("{}"))
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(r.Events("sess-1")) == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := len(r.Events("sess-1")); got != 3 {
		t.Errorf("trail not bounded: %d events", got)
	}
}

func TestFollowIdempotent(t *testing.T) {
	b := bus.NewChannelBus(10)
	defer b.Close()

	r := NewRecorder(b, 10)
	defer r.Stop()

	r.Follow("sess-1")
	r.Follow("sess-1")

	ctx := context.Background()
	b.Publish(ctx, "sess-1", domain.TopicCaseLoaded, []byte("{}"))

	time.Sleep(50 * time.Millisecond)
	if got := len(r.Events("sess-1")); got != 1 {
		t.Errorf("double follow duplicated events: %d", got)
	}
}
