package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smurfatcher/harrier/internal/domain"
)

func TestLRUSetGet(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	if err := c.Set(ctx, "sess-1", "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := c.Get(ctx, "sess-1", "key")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(val) != "value" {
		t.Errorf("expected value, got %q", val)
	}
}

func TestLRUSessionIsolation(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	c.Set(ctx, "sess-1", "key", []byte("one"), time.Minute)
	c.Set(ctx, "sess-2", "key", []byte("two"), time.Minute)

	val, _ := c.Get(ctx, "sess-2", "key")
	if string(val) != "two" {
		t.Errorf("sessions must not share keys, got %q", val)
	}
	val, _ = c.Get(ctx, "sess-1", "key")
	if string(val) != "one" {
		t.Errorf("sessions must not share keys, got %q", val)
	}
}

func TestLRURequiresSessionID(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	if _, err := c.Get(ctx, "", "key"); err == nil {
		t.Error("expected error for missing session ID")
	}
	if err := c.Set(ctx, "", "key", nil, time.Minute); err == nil {
		t.Error("expected error for missing session ID")
	}
}

func TestLRUExpiration(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	c.Set(ctx, "sess-1", "key", []byte("value"), -time.Second)

	val, err := c.Get(ctx, "sess-1", "key")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected expired entry to be gone, got %q", val)
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	c.Set(ctx, "s", "a", []byte("1"), time.Minute)
	c.Set(ctx, "s", "b", []byte("2"), time.Minute)
	c.Get(ctx, "s", "a") // refresh a
	c.Set(ctx, "s", "c", []byte("3"), time.Minute)

	if val, _ := c.Get(ctx, "s", "b"); val != nil {
		t.Error("expected least recently used entry to be evicted")
	}
	if val, _ := c.Get(ctx, "s", "a"); val == nil {
		t.Error("recently used entry must survive eviction")
	}

	size, capacity := c.Stats()
	if size != 2 || capacity != 2 {
		t.Errorf("unexpected stats: size=%d capacity=%d", size, capacity)
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	c.Set(ctx, "s", "key", []byte("value"), time.Minute)
	if err := c.Delete(ctx, "s", "key"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if val, _ := c.Get(ctx, "s", "key"); val != nil {
		t.Error("expected deleted entry to be gone")
	}
}

func TestInsightsRoundTrip(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	ins := &domain.Insights{
		Recommendations: []domain.InvestigationRecommendation{
			{Priority: domain.PriorityHigh, Action: "Investigate"},
		},
		CaseSummary: &domain.CaseSummary{Title: "AML Detection Report - Case abc"},
		GeneratedAt: "2026-08-15T12:00:00Z",
	}

	if err := c.SetInsights(ctx, "sess-1", "CASE-1", ins, time.Minute); err != nil {
		t.Fatalf("set insights failed: %v", err)
	}

	got, err := c.GetInsights(ctx, "sess-1", "CASE-1")
	if err != nil {
		t.Fatalf("get insights failed: %v", err)
	}
	if got == nil || got.CaseSummary == nil || got.CaseSummary.Title != ins.CaseSummary.Title {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Priority != domain.PriorityHigh {
		t.Errorf("recommendations not preserved: %+v", got.Recommendations)
	}

	if miss, _ := c.GetInsights(ctx, "sess-1", "CASE-2"); miss != nil {
		t.Error("expected miss for unknown case ID")
	}
}

func TestNewFactory(t *testing.T) {
	c, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 5})
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}

	if _, err := New(domain.CacheConfig{Type: "bogus"}); err == nil {
		t.Error("expected error for unsupported cache type")
	}
}
