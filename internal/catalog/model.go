package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCriticalThreshold = 10

type Product struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	UnitPrice         decimal.NullDecimal `json:"unitPrice"`
	CriticalThreshold int                 `json:"criticalThreshold"`
	CreatedAt         time.Time           `json:"createdAt"`
}

// CreateProductInput leaves UnitPrice nil when the price is not yet known.
type CreateProductInput struct {
	Name              string
	UnitPrice         *decimal.Decimal
	CriticalThreshold *int
}
