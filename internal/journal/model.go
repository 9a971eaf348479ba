package journal

import (
	"time"

	"github.com/google/uuid"
)

// StateNone is the previous state recorded when an order is first created.
const StateNone = "none"

// Entry is one immutable line of the audit trail. OrderID is nil for
// pure stock movements.
type Entry struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       *uuid.UUID `json:"orderId,omitempty"`
	ActorID       uuid.UUID  `json:"actorId"`
	PreviousState string     `json:"previousState"`
	NewState      string     `json:"newState"`
	Comment       string     `json:"comment,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewEntry builds an entry with a fresh identifier.
func NewEntry(orderID *uuid.UUID, actorID uuid.UUID, previous, next, comment string, at time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		OrderID:       orderID,
		ActorID:       actorID,
		PreviousState: previous,
		NewState:      next,
		Comment:       comment,
		Timestamp:     at,
	}
}

type Filter struct {
	OrderID *uuid.UUID
	ActorID *uuid.UUID
	From    *time.Time
	To      *time.Time
}
