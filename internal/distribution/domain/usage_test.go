package domain_test

import (
	"testing"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeUsage(t *testing.T) {
	rows := []domain.UsageRow{
		{MedicineID: "med-2", MedicineName: "Score", RequestedQuantity: decimal.RequireFromString("3"), ApprovedQuantity: decimal.RequireFromString("3")},
		{MedicineID: "med-1", MedicineName: "Amistar", RequestedQuantity: decimal.RequireFromString("10"), ApprovedQuantity: decimal.RequireFromString("7.5")},
		{MedicineID: "med-1", MedicineName: "Amistar", RequestedQuantity: decimal.RequireFromString("2.5"), ApprovedQuantity: decimal.Zero},
	}

	summaries := domain.SummarizeUsage(rows)
	require.Len(t, summaries, 2)

	// Sorted by name regardless of input order.
	amistar := summaries[0]
	assert.Equal(t, "med-1", amistar.MedicineID)
	assert.Equal(t, 2, amistar.LineCount)
	assert.True(t, amistar.TotalRequested.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, amistar.TotalApproved.Equal(decimal.RequireFromString("7.5")))

	score := summaries[1]
	assert.Equal(t, "med-2", score.MedicineID)
	assert.Equal(t, 1, score.LineCount)
}

func TestSummarizeUsage_Empty(t *testing.T) {
	assert.Empty(t, domain.SummarizeUsage(nil))
}
