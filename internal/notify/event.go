package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLowStockDetected   EventType = "LowStockDetected"
	EventStockAssigned      EventType = "StockAssigned"
	EventOrderUnderRevision EventType = "OrderUnderRevision"
)

// Event is something the core decided is worth telling someone about.
// Delivery is the dispatcher's concern.
type Event interface {
	Type() EventType
}

type LowStockDetected struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Available   int       `json:"available"`
	Threshold   int       `json:"threshold"`
}

func (LowStockDetected) Type() EventType { return EventLowStockDetected }

type StockAssigned struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	RecipientID uuid.UUID `json:"recipientId"`
	AssignedBy  uuid.UUID `json:"assignedBy"`
}

func (StockAssigned) Type() EventType { return EventStockAssigned }

type OrderUnderRevision struct {
	OrderID uuid.UUID `json:"orderId"`
	OwnerID uuid.UUID `json:"ownerId"`
	Comment string    `json:"comment,omitempty"`
}

func (OrderUnderRevision) Type() EventType { return EventOrderUnderRevision }

// Envelope is the wire form of an event.
type Envelope struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    Event     `json:"payload"`
}

func Wrap(e Event, at time.Time) Envelope {
	return Envelope{ID: uuid.New(), Type: e.Type(), OccurredAt: at, Payload: e}
}

// Dispatcher delivers events. Dispatch must not block on delivery and never
// reports failure back to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...Event)
}

// Multi fans every event out to each dispatcher in order.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	for _, d := range m {
		d.Dispatch(ctx, events...)
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, ...Event) {}
