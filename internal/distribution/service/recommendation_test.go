package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	apperrors "github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSubmission(id string, items ...domain.SubmissionItem) *domain.Submission {
	return &domain.Submission{
		ID:           id,
		Status:       domain.StatusPending,
		Priority:     domain.PriorityMedium,
		AffectedArea: dec("5"),
		PestTargets:  []string{"wereng"},
		Items:        items,
		RequesterID:  "farmer-1",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func newRecommendationService(store *fakeStore, catalog *fakeCatalog, notifier service.ShortageNotifier) *service.RecommendationService {
	return service.NewRecommendationService(
		store, catalog,
		service.NewQuantityCalculator(), service.NewMedicineScorer(),
		notifier, 90, testLogger(),
	)
}

func TestRecommendationService_Generate_FullAvailability(t *testing.T) {
	farExpiry := time.Now().AddDate(1, 0, 0)
	med := testMedicine("med-1", "Prevathon", domain.CategoryInsektisida, []string{"wereng"},
		domain.StockLot{ID: "lot-1", Quantity: dec("100"), ExpiryDate: farExpiry, BatchNumber: "B-01"},
	)

	sub := testSubmission("sub-1", domain.SubmissionItem{
		ID: "item-1", SubmissionID: "sub-1", MedicineID: "med-1",
		MedicineName: "Prevathon", RequestedQuantity: dec("10"), Unit: "liter",
	})

	svc := newRecommendationService(newFakeStore(sub), newFakeCatalog(med), nil)

	rec, err := svc.Generate(context.Background(), "sub-1", service.RecommendOptions{})
	require.NoError(t, err)

	require.Len(t, rec.Items, 1)
	item := rec.Items[0]

	assert.Equal(t, "item-1", item.ItemID)
	assert.Equal(t, domain.SourceCatalog, item.OptimalChoice.Source)
	assert.Equal(t, 100, item.OptimalChoice.EffectivenessScore)
	// 5 ha x 1.5 x 1.0 x 1.1 = 8.25
	assert.True(t, item.QuantityCalculation.RoundedQty.Equal(dec("8.25")))
	assert.True(t, item.OptimalChoice.RecommendedQty.Equal(dec("8.25")))

	assert.Equal(t, domain.AvailabilityFull, rec.AvailabilityStatus)
	assert.Equal(t, domain.RiskLow, rec.RiskAssessment.OverallRisk)
	assert.Equal(t, domain.RiskLow, rec.RiskAssessment.StockRisk)
	assert.True(t, rec.TotalEstimatedCost.Equal(item.OptimalChoice.TotalCost))
}

func TestRecommendationService_Generate_FallbackOnFetchFailure(t *testing.T) {
	sub := testSubmission("sub-1", domain.SubmissionItem{
		ID: "item-1", SubmissionID: "sub-1", MedicineID: "med-missing",
		MedicineName: "Unknown", RequestedQuantity: dec("10"),
	})

	catalog := newFakeCatalog()
	catalog.findErr = apperrors.Internal("catalog unavailable")

	svc := newRecommendationService(newFakeStore(sub), catalog, nil)

	rec, err := svc.Generate(context.Background(), "sub-1", service.RecommendOptions{})
	require.NoError(t, err, "fetch failure must degrade, not abort")

	require.Len(t, rec.Items, 1)
	choice := rec.Items[0].OptimalChoice
	assert.Equal(t, domain.SourceFallback, choice.Source)
	assert.Equal(t, "med-missing", choice.MedicineID)
	assert.Equal(t, "Unknown", choice.MedicineName)
	assert.True(t, choice.AvailableStock.IsZero())

	// A zero-stock fallback line cannot cover the request.
	assert.Equal(t, domain.AvailabilityUnavailable, rec.AvailabilityStatus)
}

func TestRecommendationService_Generate_NotFound(t *testing.T) {
	svc := newRecommendationService(newFakeStore(), newFakeCatalog(), nil)

	_, err := svc.Generate(context.Background(), "missing", service.RecommendOptions{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestRecommendationService_Generate_ShortageTriggersAlternativesAndNotification(t *testing.T) {
	farExpiry := time.Now().AddDate(1, 0, 0)

	primary := testMedicine("med-1", "Prevathon", domain.CategoryInsektisida, []string{"wereng"},
		domain.StockLot{ID: "lot-1", Quantity: dec("2"), ExpiryDate: farExpiry},
	)
	substitute := testMedicine("med-2", "Substitute", domain.CategoryInsektisida, []string{"wereng"},
		domain.StockLot{ID: "lot-2", Quantity: dec("50"), ExpiryDate: farExpiry},
	)
	tooSmall := testMedicine("med-3", "Tiny", domain.CategoryInsektisida, []string{"wereng"},
		domain.StockLot{ID: "lot-3", Quantity: dec("1"), ExpiryDate: farExpiry},
	)

	catalog := newFakeCatalog(primary)
	catalog.byPest = []*domain.Medicine{substitute, tooSmall}

	sub := testSubmission("sub-1", domain.SubmissionItem{
		ID: "item-1", SubmissionID: "sub-1", MedicineID: "med-1",
		MedicineName: "Prevathon", RequestedQuantity: dec("10"),
	})

	notifier := &fakeNotifier{}
	svc := newRecommendationService(newFakeStore(sub), catalog, notifier)

	rec, err := svc.Generate(context.Background(), "sub-1", service.RecommendOptions{})
	require.NoError(t, err)

	item := rec.Items[0]
	require.NotNil(t, item.Alternative)
	assert.Equal(t, domain.ReasonInsufficientQuantity, item.Alternative.Reason)

	// Required is 8.25; only lots holding at least half of that qualify.
	require.Len(t, item.Alternative.Alternatives, 1)
	assert.Equal(t, "med-2", item.Alternative.Alternatives[0].MedicineID)

	assert.Equal(t, []string{"med-1"}, notifier.shortages)
	assert.Equal(t, domain.AvailabilityUnavailable, rec.AvailabilityStatus)
	assert.Equal(t, domain.RiskHigh, rec.RiskAssessment.StockRisk)
}

func TestRecommendationService_Generate_IncludeAlternativesRanking(t *testing.T) {
	farExpiry := time.Now().AddDate(1, 0, 0)

	primary := testMedicine("med-1", "Weak Primary", domain.CategoryFungisida, []string{"blas"},
		domain.StockLot{ID: "lot-1", Quantity: dec("100"), ExpiryDate: farExpiry},
	)
	better := testMedicine("med-2", "Strong Alternative", domain.CategoryInsektisida, []string{"wereng"},
		domain.StockLot{ID: "lot-2", Quantity: dec("100"), ExpiryDate: farExpiry},
	)

	catalog := newFakeCatalog(primary)
	catalog.byPest = []*domain.Medicine{better}

	sub := testSubmission("sub-1", domain.SubmissionItem{
		ID: "item-1", SubmissionID: "sub-1", MedicineID: "med-1",
		MedicineName: "Weak Primary", RequestedQuantity: dec("10"),
	})

	svc := newRecommendationService(newFakeStore(sub), catalog, nil)

	rec, err := svc.Generate(context.Background(), "sub-1", service.RecommendOptions{
		IncludeAlternatives: true,
	})
	require.NoError(t, err)

	item := rec.Items[0]
	// The direct wereng match outranks the primary with no match.
	assert.Equal(t, "med-2", item.OptimalChoice.MedicineID)
	require.Len(t, item.RecommendedOptions, 2)
	assert.Equal(t, "med-1", item.RecommendedOptions[1].MedicineID)
}

func TestRecommendationService_Generate_ExpiryRisk(t *testing.T) {
	soonExpiry := time.Now().AddDate(0, 0, 30)
	med := testMedicine("med-1", "Expiring", domain.CategoryInsektisida, []string{"wereng"},
		domain.StockLot{ID: "lot-1", Quantity: dec("100"), ExpiryDate: soonExpiry},
	)

	sub := testSubmission("sub-1", domain.SubmissionItem{
		ID: "item-1", SubmissionID: "sub-1", MedicineID: "med-1",
		MedicineName: "Expiring", RequestedQuantity: dec("10"),
	})

	svc := newRecommendationService(newFakeStore(sub), newFakeCatalog(med), nil)

	rec, err := svc.Generate(context.Background(), "sub-1", service.RecommendOptions{})
	require.NoError(t, err)

	// The single line is 100% of lines, above the 30% high threshold.
	assert.Equal(t, domain.RiskHigh, rec.RiskAssessment.ExpiryRisk)
	assert.NotEmpty(t, rec.RiskAssessment.Warnings)
	// stock low (1), expiry high (3), effectiveness low (1): avg 5/3 -> medium.
	assert.Equal(t, domain.RiskMedium, rec.RiskAssessment.OverallRisk)
}

func TestRecommendationService_Generate_ToleranceWarning(t *testing.T) {
	soonExpiry := time.Now().AddDate(0, 0, 10)
	med := testMedicine("med-1", "Risky", domain.CategoryFungisida, nil,
		domain.StockLot{ID: "lot-1", Quantity: dec("1"), ExpiryDate: soonExpiry},
	)

	sub := testSubmission("sub-1", domain.SubmissionItem{
		ID: "item-1", SubmissionID: "sub-1", MedicineID: "med-1",
		MedicineName: "Risky", RequestedQuantity: dec("10"),
	})

	svc := newRecommendationService(newFakeStore(sub), newFakeCatalog(med), nil)

	rec, err := svc.Generate(context.Background(), "sub-1", service.RecommendOptions{
		RiskTolerance: domain.RiskLow,
	})
	require.NoError(t, err)

	// Under-stocked, expiring and low-scoring at once: every dimension high.
	assert.Equal(t, domain.RiskHigh, rec.RiskAssessment.OverallRisk)
	require.NotEmpty(t, rec.RiskAssessment.Warnings)
	assert.Contains(t, rec.RiskAssessment.Warnings[len(rec.RiskAssessment.Warnings)-1], "tolerance")
}
