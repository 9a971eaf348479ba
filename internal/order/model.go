package order

import (
	"math"
	"time"

	"procurement-be/internal/journal"
	"procurement-be/internal/notify"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest line quantity the order_lines.quantity INT
// column holds.
const MaxQuantity = math.MaxInt32

type Status string

const (
	StatusSubmitted     Status = "Submitted"
	StatusValidated     Status = "Validated"
	StatusRejected      Status = "Rejected"
	StatusUnderRevision Status = "UnderRevision"
	StatusCancelled     Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusValidated, StatusRejected, StatusUnderRevision, StatusCancelled:
		return true
	}
	return false
}

// Editable reports whether the order lines may still be replaced.
func (s Status) Editable() bool {
	return s == StatusSubmitted || s == StatusRejected
}

// Line is owned by its order and has no identity of its own. UnitPrice is
// the price captured at the last recomputation; it stays null while the
// catalog has no price for the product.
type Line struct {
	ProductID uuid.UUID           `json:"productId"`
	Quantity  int                 `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unitPrice"`
}

type Order struct {
	ID                  uuid.UUID       `json:"id"`
	OwnerID             uuid.UUID       `json:"ownerId"`
	Lines               []Line          `json:"lines"`
	Status              Status          `json:"status"`
	Comment             string          `json:"comment,omitempty"`
	CancellationComment string          `json:"cancellationComment,omitempty"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// LineInput is a requested line. ProductID references an existing catalog
// entry; when it is nil the line names a product that is looked up by name
// and created on the fly if the catalog does not know it yet.
type LineInput struct {
	ProductID         *uuid.UUID       `json:"productId,omitempty"`
	Quantity          int              `json:"quantity"`
	Name              string           `json:"name,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	CriticalThreshold *int             `json:"criticalThreshold,omitempty"`
}

type Filter struct {
	Status *Status
	From   *time.Time
	To     *time.Time
}

// ListQuery is a Filter after role scoping has been applied.
type ListQuery struct {
	OwnerID *uuid.UUID
	Status  *Status
	From    *time.Time
	To      *time.Time
}

// StatsQuery scopes statistics to one owner when OwnerID is set.
type StatsQuery struct {
	OwnerID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

type Stats struct {
	Counts         map[Status]int  `json:"counts"`
	ValidatedTotal decimal.Decimal `json:"validatedTotal"`
}

// Result is what every state-changing operation returns: the order as
// committed, the journal entry committed with it, and the events that were
// handed to the dispatcher afterwards.
type Result struct {
	Order  *Order         `json:"order"`
	Entry  *journal.Entry `json:"journalEntry"`
	Events []notify.Event `json:"-"`
}
