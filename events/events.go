package events

import (
	"context"
	"sync"

	"roulette/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeAccountCreated    EventType = "account_created"
	EventTypeBetSettled        EventType = "bet_settled"
	EventTypeBonusGranted      EventType = "bonus_granted"
	EventTypePersistenceFailed EventType = "persistence_failed"
)

// AllEventTypes lists every event type emitted by the ledger services
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeAccountCreated,
	EventTypeBetSettled,
	EventTypeBonusGranted,
	EventTypePersistenceFailed,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	User            string                 `json:"user"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	ChangeAmount    int64                  `json:"change_amount"`
	TransactionType models.TransactionType `json:"transaction_type"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a lazily created account
type AccountCreatedEvent struct {
	User           string `json:"user"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// BetSettledEvent represents a roulette bet that was settled
type BetSettledEvent struct {
	BetID      string       `json:"bet_id"`
	User       string       `json:"user"`
	Choice     models.Color `json:"choice"`
	Outcome    models.Color `json:"outcome"`
	Pocket     int          `json:"pocket"`
	Amount     int64        `json:"amount"`
	Won        bool         `json:"won"`
	Payout     int64        `json:"payout"`
	NewBalance int64        `json:"new_balance"`
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// BonusGrantedEvent represents a cooldown reward that was granted
type BonusGrantedEvent struct {
	User   string            `json:"user"`
	Kind   models.RewardKind `json:"kind"`
	Amount int64             `json:"amount"`
}

func (e BonusGrantedEvent) Type() EventType {
	return EventTypeBonusGranted
}

// PersistenceFailedEvent is emitted when an in-memory change could not be saved
type PersistenceFailedEvent struct {
	Operation string `json:"operation"`
	User      string `json:"user"`
	Error     string `json:"error"`
}

func (e PersistenceFailedEvent) Type() EventType {
	return EventTypePersistenceFailed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inline   bool
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// NewSyncBus creates a bus that calls handlers inline, in subscription order
func NewSyncBus() *Bus {
	b := NewBus()
	b.inline = true
	return b
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range AllEventTypes {
		b.Subscribe(t, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	for i, handler := range handlers {
		if b.inline {
			call(ctx, handler, i, event)
			continue
		}
		// Call handlers asynchronously to avoid blocking
		go call(ctx, handler, i, event)
	}
}

func call(ctx context.Context, h Handler, handlerIndex int, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"eventType":    event.Type(),
				"handlerIndex": handlerIndex,
				"panic":        r,
			}).Error("Event handler panicked")
		}
	}()
	h(ctx, event)
}

// TransactionalBus holds events raised during a ledger operation until the
// operation has committed. Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after the ledger commit
func (b *TransactionalBus) Flush() {
	// Events are processed independently of the request lifecycle
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events when the operation did not commit
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
