package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_PersistsEmittedEvents(t *testing.T) {
	pub := NewPublisher(4)
	store := NewMemoryStore()
	worker := NewWorker(store, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	pub.Emit(Event{UserID: "acct-1", Action: ActionWalletLogin, Outcome: OutcomeSuccess})
	pub.Emit(Event{UserID: "acct-2", Action: ActionProofApplied, Provider: "google", Outcome: OutcomeSuccess})

	require.Eventually(t, func() bool {
		events, err := store.ListByUser(context.Background(), "acct-2")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByUser(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionWalletLogin, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())

	cancel()
	<-done
}

func TestPublisher_NeverBlocksWhenFull(t *testing.T) {
	pub := NewPublisher(1)

	// no worker draining; the second emit must drop instead of blocking
	finished := make(chan struct{})
	go func() {
		pub.Emit(Event{UserID: "acct-1", Action: ActionWalletLogin})
		pub.Emit(Event{UserID: "acct-1", Action: ActionTokenRefresh})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}
