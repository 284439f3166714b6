package events

import (
	"context"
	"sync"

	"github.com/fbetancur/CrediSync360/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePaymentRecorded         EventType = "payment_recorded"
	EventTypeCreditOriginated        EventType = "credit_originated"
	EventTypeClientRegistered        EventType = "client_registered"
	EventTypeInstallmentRecalculated EventType = "installment_recalculated"
	EventTypeCreditRecalculated      EventType = "credit_recalculated"
	EventTypeClientRecalculated      EventType = "client_recalculated"
	EventTypeSyncQueueChanged        EventType = "sync_queue_changed"
	EventTypeCashDayClosed           EventType = "cash_day_closed"
	EventTypeCashDayReopened         EventType = "cash_day_reopened"
	EventTypeCashMovementAdded       EventType = "cash_movement_added"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PaymentRecordedEvent fires after a payment lands in the local ledger
type PaymentRecordedEvent struct {
	PaymentID     string
	InstallmentID string
	CreditID      string
	ClientID      string
}

func (e PaymentRecordedEvent) Type() EventType { return EventTypePaymentRecorded }

// CreditOriginatedEvent fires after a credit and its schedule are created
type CreditOriginatedEvent struct {
	CreditID         string
	ClientID         string
	InstallmentCount int
}

func (e CreditOriginatedEvent) Type() EventType { return EventTypeCreditOriginated }

// ClientRegisteredEvent fires after a new client is stored locally
type ClientRegisteredEvent struct {
	ClientID string
	TenantID string
}

func (e ClientRegisteredEvent) Type() EventType { return EventTypeClientRegistered }

// InstallmentRecalculatedEvent fires when the cascade updates an installment's cache
type InstallmentRecalculatedEvent struct {
	InstallmentID string
	State         models.InstallmentState
}

func (e InstallmentRecalculatedEvent) Type() EventType { return EventTypeInstallmentRecalculated }

// CreditRecalculatedEvent fires when the cascade updates a credit's cache
type CreditRecalculatedEvent struct {
	CreditID string
}

func (e CreditRecalculatedEvent) Type() EventType { return EventTypeCreditRecalculated }

// ClientRecalculatedEvent fires when the cascade updates a client's cache
type ClientRecalculatedEvent struct {
	ClientID string
	Status   models.ClientStatus
}

func (e ClientRecalculatedEvent) Type() EventType { return EventTypeClientRecalculated }

// SyncQueueChangedEvent fires after a drain pass changes queue item states
type SyncQueueChangedEvent struct {
	Synced int
	Failed int
}

func (e SyncQueueChangedEvent) Type() EventType { return EventTypeSyncQueueChanged }

// CashDayClosedEvent fires when a collector closes their cash day
type CashDayClosedEvent struct {
	ClosingID   string
	CollectorID string
}

func (e CashDayClosedEvent) Type() EventType { return EventTypeCashDayClosed }

// CashDayReopenedEvent fires when a closing record is deleted
type CashDayReopenedEvent struct {
	CollectorID string
}

func (e CashDayReopenedEvent) Type() EventType { return EventTypeCashDayReopened }

// CashMovementAddedEvent fires when a manual cash entry is added
type CashMovementAddedEvent struct {
	MovementID string
	Kind       models.MovementType
}

func (e CashMovementAddedEvent) Type() EventType { return EventTypeCashMovementAdded }

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. Local writes emit
// events here; downstream views subscribe to the entity types they
// render instead of re-querying on every write.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
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
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking the write path
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
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
		}(handler, i)
	}
}
