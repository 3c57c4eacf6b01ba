package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine categories. The keys follow the catalog's source vocabulary.
const (
	CategoryInsektisida = "insektisida"
	CategoryFungisida   = "fungisida"
	CategoryHerbisida   = "herbisida"
	CategoryBakterisida = "bakterisida"
	CategoryAkarisida   = "akarisida"
)

// Medicine is a catalog entry. Immutable from the engine's point of view;
// owned by the external catalog.
type Medicine struct {
	ID               string          `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Category         string          `json:"category" db:"category"`
	PestTargets      []string        `json:"pest_targets" db:"-"`
	UnitPrice        decimal.Decimal `json:"unit_price" db:"unit_price"`
	ActiveIngredient string          `json:"active_ingredient" db:"active_ingredient"`
	Unit             string          `json:"unit" db:"unit"`
	IsActive         bool            `json:"is_active" db:"is_active"`

	// StockLots holds the eligible lots (quantity > 0, not expired),
	// ordered by expiry ascending, as loaded by the catalog reader.
	StockLots []StockLot `json:"stock_lots" db:"-"`
}

// AvailableStock sums the quantities of all eligible lots.
func (m *Medicine) AvailableStock() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range m.StockLots {
		total = total.Add(lot.Quantity)
	}
	return total
}

// NearestLot returns the eligible lot with the earliest expiry, or nil when
// the medicine has no stock. Lots are pre-sorted by expiry.
func (m *Medicine) NearestLot() *StockLot {
	if len(m.StockLots) == 0 {
		return nil
	}
	return &m.StockLots[0]
}

// StockLot is a batch of a medicine with its own quantity and expiry.
// The engine treats lot quantities as a read-only snapshot; they are
// re-validated at decision time.
type StockLot struct {
	ID          string          `json:"id" db:"id"`
	MedicineID  string          `json:"medicine_id" db:"medicine_id"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	ExpiryDate  time.Time       `json:"expiry_date" db:"expiry_date"`
	BatchNumber string          `json:"batch_number" db:"batch_number"`
	Supplier    string          `json:"supplier" db:"supplier"`
}
