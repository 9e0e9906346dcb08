package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smurfatcher/harrier/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, "sess-1", domain.TopicCaseLoaded, func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	if err := b.Publish(ctx, "sess-1", domain.TopicCaseLoaded, []byte(`{"caseId":"CASE-1"}`)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg.SessionID != "sess-1" || msg.Topic != domain.TopicCaseLoaded {
			t.Errorf("unexpected message: %+v", msg)
		}
		if string(msg.Payload) != `{"caseId":"CASE-1"}` {
			t.Errorf("unexpected payload: %s", msg.Payload)
		}
		if msg.ID == "" {
			t.Error("message ID not assigned")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelBusSessionIsolation(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var mu sync.Mutex
	var count int
	_, err := b.Subscribe(ctx, "sess-1", domain.TopicCaseLoaded, func(ctx context.Context, msg *domain.Message) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := b.Publish(ctx, "sess-2", domain.TopicCaseLoaded, []byte("x")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("message crossed session boundary, count=%d", count)
	}
}

func TestChannelBusRequiresSessionID(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	if err := b.Publish(ctx, "", domain.TopicCaseLoaded, nil); err == nil {
		t.Error("expected error for missing session ID")
	}
	if _, err := b.Subscribe(ctx, "", domain.TopicCaseLoaded, nil); err == nil {
		t.Error("expected error for missing session ID")
	}
}

func TestChannelBusClosed(t *testing.T) {
	b := NewChannelBus(10)
	ctx := context.Background()

	if err := b.Ping(ctx); err != nil {
		t.Errorf("ping on open bus failed: %v", err)
	}

	b.Close()

	if err := b.Publish(ctx, "sess-1", domain.TopicCaseLoaded, nil); err == nil {
		t.Error("expected publish to fail on closed bus")
	}
	if err := b.Ping(ctx); err == nil {
		t.Error("expected ping to fail on closed bus")
	}
	// Second close is a no-op.
	if err := b.Close(); err != nil {
		t.Errorf("double close failed: %v", err)
	}
}

func TestChannelBusMultipleSubscribers(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		_, err := b.Subscribe(ctx, "sess-1", domain.TopicInsightsGenerated, func(ctx context.Context, msg *domain.Message) error {
			wg.Done()
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}

	if err := b.Publish(ctx, "sess-1", domain.TopicInsightsGenerated, []byte("x")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all subscribers received the message")
	}
}

func TestNewFactory(t *testing.T) {
	b, err := New(domain.EventBusConfig{Type: "channel", ChannelBufferSize: 10})
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	defer b.Close()

	if _, err := New(domain.EventBusConfig{Type: "bogus"}); err == nil {
		t.Error("expected error for unsupported bus type")
	}
}
