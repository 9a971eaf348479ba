package stock

import (
	"math"
	"time"

	"procurement-be/internal/journal"
	"procurement-be/internal/notify"

	"github.com/google/uuid"
)

// MaxQuantity is the largest quantity the stock_records INT column holds.
const MaxQuantity = math.MaxInt32

// Record is the single stock position of a product. AvailableQuantity never
// goes below zero.
type Record struct {
	ProductID         uuid.UUID `json:"productId"`
	AvailableQuantity int       `json:"availableQuantity"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// Level is a catalog product joined with its stock position.
type Level struct {
	ProductID         uuid.UUID  `json:"productId"`
	ProductName       string     `json:"productName"`
	AvailableQuantity int        `json:"availableQuantity"`
	CriticalThreshold int        `json:"criticalThreshold"`
	LastUpdated       *time.Time `json:"lastUpdated,omitempty"`
	Low               bool       `json:"low"`
}

// IsLow reports whether available has reached the product's critical threshold.
func IsLow(available, threshold int) bool {
	return available <= threshold
}

type Result struct {
	Record *Record        `json:"record"`
	Entry  *journal.Entry `json:"journalEntry"`
	Events []notify.Event `json:"-"`
}
