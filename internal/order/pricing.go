package order

import (
	"procurement-be/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSnapshot holds the catalog prices resolved once for a mutation.
type PriceSnapshot map[uuid.UUID]decimal.NullDecimal

func SnapshotFrom(products map[uuid.UUID]*catalog.Product) PriceSnapshot {
	snap := make(PriceSnapshot, len(products))
	for id, p := range products {
		snap[id] = p.UnitPrice
	}
	return snap
}

// Apply sets each line's unit price from the snapshot. With onlyMissing,
// lines that already carry a price keep it. It reports whether any line
// changed.
func (s PriceSnapshot) Apply(lines []Line, onlyMissing bool) bool {
	changed := false
	for i := range lines {
		if onlyMissing && lines[i].UnitPrice.Valid {
			continue
		}
		price, ok := s[lines[i].ProductID]
		if !ok || !price.Valid {
			continue
		}
		if !lines[i].UnitPrice.Valid || !lines[i].UnitPrice.Decimal.Equal(price.Decimal) {
			lines[i].UnitPrice = price
			changed = true
		}
	}
	return changed
}

// Total is Σ quantity × unit price; a line without a price counts as zero.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if !l.UnitPrice.Valid {
			continue
		}
		total = total.Add(l.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// MissingPrices lists the products of lines that still have no unit price.
func MissingPrices(lines []Line) []uuid.UUID {
	var ids []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, l := range lines {
		if !l.UnitPrice.Valid && !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}
