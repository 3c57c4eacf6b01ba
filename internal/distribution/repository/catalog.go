package repository

import (
	"context"
	"database/sql"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/database"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// CatalogRepository reads the medicine catalog. Medicines are always loaded
// together with their eligible stock lots: quantity > 0 and expiry not in the
// past, ordered by expiry ascending.
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// medicineRow maps the medicines table; pest_targets is a text array.
type medicineRow struct {
	ID               string          `db:"id"`
	Name             string          `db:"name"`
	Category         string          `db:"category"`
	PestTargets      pq.StringArray  `db:"pest_targets"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	ActiveIngredient string          `db:"active_ingredient"`
	Unit             string          `db:"unit"`
	IsActive         bool            `db:"is_active"`
}

func (r medicineRow) toDomain() *domain.Medicine {
	return &domain.Medicine{
		ID:               r.ID,
		Name:             r.Name,
		Category:         r.Category,
		PestTargets:      []string(r.PestTargets),
		UnitPrice:        r.UnitPrice,
		ActiveIngredient: r.ActiveIngredient,
		Unit:             r.Unit,
		IsActive:         r.IsActive,
	}
}

// FindMedicine gets a medicine by ID with its eligible stock lots
func (r *CatalogRepository) FindMedicine(ctx context.Context, id string) (*domain.Medicine, error) {
	var row medicineRow
	query := `
		SELECT id, name, category, pest_targets, unit_price, active_ingredient, unit, is_active
		FROM medicines
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, database.MapPQError(err)
	}

	medicine := row.toDomain()
	lots, err := r.eligibleLots(ctx, id)
	if err != nil {
		return nil, err
	}
	medicine.StockLots = lots

	return medicine, nil
}

// FindMedicinesByPestTargets lists active medicines whose pest target list
// overlaps the given pests, excluding one medicine. Results are ordered by
// name for a stable candidate order.
func (r *CatalogRepository) FindMedicinesByPestTargets(ctx context.Context, pestTargets []string, excludeID string, limit int) ([]*domain.Medicine, error) {
	if len(pestTargets) == 0 {
		return nil, nil
	}

	var rows []medicineRow
	query := `
		SELECT id, name, category, pest_targets, unit_price, active_ingredient, unit, is_active
		FROM medicines
		WHERE is_active = true
		  AND pest_targets && $1
		  AND id <> $2
		ORDER BY name
		LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(pestTargets), excludeID, limit); err != nil {
		return nil, database.MapPQError(err)
	}

	medicines := make([]*domain.Medicine, 0, len(rows))
	for _, row := range rows {
		medicine := row.toDomain()
		lots, err := r.eligibleLots(ctx, medicine.ID)
		if err != nil {
			return nil, err
		}
		medicine.StockLots = lots
		medicines = append(medicines, medicine)
	}

	return medicines, nil
}

// AvailableStock sums the eligible lot quantities of a medicine.
func (r *CatalogRepository) AvailableStock(ctx context.Context, medicineID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM medicine_stock_lots
		WHERE medicine_id = $1 AND quantity > 0 AND expiry_date >= NOW()
	`
	if err := r.db.GetContext(ctx, &total, query, medicineID); err != nil {
		return decimal.Zero, database.MapPQError(err)
	}
	return total, nil
}

func (r *CatalogRepository) eligibleLots(ctx context.Context, medicineID string) ([]domain.StockLot, error) {
	var lots []domain.StockLot
	query := `
		SELECT id, medicine_id, quantity, expiry_date, batch_number, supplier
		FROM medicine_stock_lots
		WHERE medicine_id = $1 AND quantity > 0 AND expiry_date >= NOW()
		ORDER BY expiry_date ASC
	`
	if err := r.db.SelectContext(ctx, &lots, query, medicineID); err != nil {
		return nil, database.MapPQError(err)
	}
	return lots, nil
}
