package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agrimed/agrimed-backend/internal/distribution/repository"
	"github.com/agrimed/agrimed-backend/pkg/database"
	apperrors "github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/agrimed/agrimed-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*testutil.MockDB, *database.DB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })
	return mockDB, database.NewFromSqlx(mockDB.DB, logger.New("test", "test"))
}

func medicineColumns() []string {
	return []string{"id", "name", "category", "pest_targets", "unit_price", "active_ingredient", "unit", "is_active"}
}

func lotColumns() []string {
	return []string{"id", "medicine_id", "quantity", "expiry_date", "batch_number", "supplier"}
}

func TestCatalogRepository_FindMedicine(t *testing.T) {
	mockDB, db := newTestDB(t)
	repo := repository.NewCatalogRepository(db)

	expiry := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)

	mockDB.Mock.ExpectQuery("SELECT id, name, category, pest_targets").
		WithArgs("med-1").
		WillReturnRows(sqlmock.NewRows(medicineColumns()).
			AddRow("med-1", "Prevathon", "insektisida", []byte("{wereng,penggerek}"),
				"25000", "chlorantraniliprole", "liter", true))

	mockDB.Mock.ExpectQuery("SELECT id, medicine_id, quantity, expiry_date").
		WithArgs("med-1").
		WillReturnRows(sqlmock.NewRows(lotColumns()).
			AddRow("lot-1", "med-1", "12.5", expiry, "B-2027-01", "PT Agro Makmur").
			AddRow("lot-2", "med-1", "30", expiry.AddDate(0, 3, 0), "B-2027-04", "PT Agro Makmur"))

	med, err := repo.FindMedicine(context.Background(), "med-1")
	require.NoError(t, err)

	assert.Equal(t, "Prevathon", med.Name)
	assert.Equal(t, []string{"wereng", "penggerek"}, med.PestTargets)
	require.Len(t, med.StockLots, 2)
	assert.Equal(t, "lot-1", med.StockLots[0].ID)
	assert.True(t, med.AvailableStock().Equal(decimal.RequireFromString("42.5")))

	mockDB.AssertExpectations(t)
}

func TestCatalogRepository_FindMedicine_NotFound(t *testing.T) {
	mockDB, db := newTestDB(t)
	repo := repository.NewCatalogRepository(db)

	mockDB.Mock.ExpectQuery("SELECT id, name, category, pest_targets").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(medicineColumns()))

	_, err := repo.FindMedicine(context.Background(), "missing")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	mockDB.AssertExpectations(t)
}

func TestCatalogRepository_AvailableStock(t *testing.T) {
	mockDB, db := newTestDB(t)
	repo := repository.NewCatalogRepository(db)

	mockDB.Mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity\), 0\)`).
		WithArgs("med-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("55.75"))

	total, err := repo.AvailableStock(context.Background(), "med-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("55.75")))

	mockDB.AssertExpectations(t)
}

func TestCatalogRepository_FindMedicinesByPestTargets_EmptyPests(t *testing.T) {
	mockDB, db := newTestDB(t)
	repo := repository.NewCatalogRepository(db)

	// No pests means no overlap query at all.
	medicines, err := repo.FindMedicinesByPestTargets(context.Background(), nil, "med-1", 5)
	require.NoError(t, err)
	assert.Empty(t, medicines)

	mockDB.AssertExpectations(t)
}
