// Package audit captures structured records of authentication and proof
// activity. Events flow through an in-process channel so emitting never
// blocks a request path.
package audit

import (
	"context"
	"sync"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	UserID    string
	Action    string
	Provider  string
	Outcome   string
	Reason    string
}

const (
	ActionWalletLogin  = "wallet_login"
	ActionTokenRefresh = "token_refresh"
	ActionProofApplied = "proof_applied"

	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
)

// Store is the audit event sink.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}

// Publisher hands events to the worker without blocking. If the inbox is
// full the event is dropped; auditing must never stall a login.
type Publisher struct {
	inbox chan Event
}

func NewPublisher(buffer int) *Publisher {
	return &Publisher{inbox: make(chan Event, buffer)}
}

func (p *Publisher) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
	}
}

// Worker consumes audit events from the publisher and persists them.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, publisher *Publisher) *Worker {
	return &Worker{store: store, inbox: publisher.inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// MemoryStore keeps events in process. Production deployments can swap in a
// database-backed sink behind the same interface.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
