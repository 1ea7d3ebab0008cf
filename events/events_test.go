package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"roulette/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDelivery tests the flow from TransactionalBus to the main Bus
func TestEventDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		User:            "ana",
		OldBalance:      1000,
		NewBalance:      2300,
		ChangeAmount:    1300,
		TransactionType: models.TransactionTypeBetWin,
	}

	transactionalBus.Publish(testEvent)

	// Nothing is delivered before the flush
	select {
	case <-eventReceived:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	transactionalBus.Flush()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestTransactionalBus_Discard(t *testing.T) {
	mainBus := NewSyncBus()
	transactionalBus := NewTransactionalBus(mainBus)

	called := false
	mainBus.Subscribe(EventTypeBetSettled, func(ctx context.Context, event Event) {
		called = true
	})

	transactionalBus.Publish(BetSettledEvent{User: "ana", Amount: 100})
	transactionalBus.Discard()
	transactionalBus.Flush()

	assert.False(t, called)
}

func TestSyncBus_OrderAndPanicRecovery(t *testing.T) {
	bus := NewSyncBus()

	var mu sync.Mutex
	var order []int
	bus.Subscribe(EventTypeBonusGranted, func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, 1)
	})
	bus.Subscribe(EventTypeBonusGranted, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeBonusGranted, func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, 3)
	})

	require.NotPanics(t, func() {
		bus.Emit(context.Background(), BonusGrantedEvent{User: "ana", Kind: models.RewardDaily, Amount: 500})
	})
	assert.Equal(t, []int{1, 3}, order)
}

func TestSubscribeAll(t *testing.T) {
	bus := NewSyncBus()

	seen := map[EventType]int{}
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		seen[event.Type()]++
	})

	bus.Emit(context.Background(), AccountCreatedEvent{User: "ana", InitialBalance: 1000})
	bus.Emit(context.Background(), PersistenceFailedEvent{Operation: "bet", User: "ana", Error: "disk full"})

	assert.Equal(t, 1, seen[EventTypeAccountCreated])
	assert.Equal(t, 1, seen[EventTypePersistenceFailed])
	assert.Equal(t, 0, seen[EventTypeBetSettled])
}
