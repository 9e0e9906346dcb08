// Package audit records case lifecycle events from the event bus into a
// bounded in-memory trail, queryable per session. Supports the analyst's
// "maintain audit trail" workflow without any persistence layer.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/smurfatcher/harrier/internal/domain"
)

const defaultMaxEvents = 500

// Event is one recorded lifecycle event.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// Recorder subscribes to the case lifecycle topics of a session and keeps
// the most recent events.
type Recorder struct {
	bus       domain.EventBus
	maxEvents int

	mu     sync.RWMutex
	trails map[string][]Event
	subs   map[string][]domain.Subscription

	ctx    context.Context
	cancel context.CancelFunc
}

// Topics lists the lifecycle topics the recorder follows.
var Topics = []string{
	domain.TopicCaseLoaded,
	domain.TopicInsightsGenerated,
	domain.TopicInsightsFailed,
	domain.TopicInterventionApplied,
	domain.TopicAnalysisReset,
}

// NewRecorder creates a recorder over the given bus.
func NewRecorder(bus domain.EventBus, maxEvents int) *Recorder {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Recorder{
		bus:       bus,
		maxEvents: maxEvents,
		trails:    make(map[string][]Event),
		subs:      make(map[string][]domain.Subscription),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Follow subscribes the recorder to a session's lifecycle topics. Calling
// it again for the same session is a no-op.
func (r *Recorder) Follow(sessionID string) error {
	r.mu.Lock()
	if _, ok := r.subs[sessionID]; ok {
		r.mu.Unlock()
		return nil
	}
	// Reserve the slot so concurrent Follow calls do not double-subscribe.
	r.subs[sessionID] = nil
	r.mu.Unlock()

	var subs []domain.Subscription
	for _, topic := range Topics {
		sub, err := r.bus.Subscribe(r.ctx, sessionID, topic, r.record)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			r.mu.Lock()
			delete(r.subs, sessionID)
			r.mu.Unlock()
			return err
		}
		subs = append(subs, sub)
	}

	r.mu.Lock()
	r.subs[sessionID] = subs
	r.mu.Unlock()

	slog.Debug("audit recorder following session", "session_id", sessionID)
	return nil
}

func (r *Recorder) record(ctx context.Context, msg *domain.Message) error {
	event := Event{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Topic:     msg.Topic,
		Payload:   json.RawMessage(msg.Payload),
		Timestamp: time.Unix(0, msg.Timestamp).UTC().Format(time.RFC3339),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	trail := append(r.trails[msg.SessionID], event)
	if len(trail) > r.maxEvents {
		trail = trail[len(trail)-r.maxEvents:]
	}
	r.trails[msg.SessionID] = trail
	return nil
}

// Events returns a session's recorded events, oldest first.
func (r *Recorder) Events(sessionID string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trail := r.trails[sessionID]
	out := make([]Event, len(trail))
	copy(out, trail)
	return out
}

// Stop unsubscribes everything and halts recording.
func (r *Recorder) Stop() {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, subs := range r.subs {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}
	r.subs = make(map[string][]domain.Subscription)
}
