package service_test

import (
	"testing"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	apperrors "github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityCalculator_Calculate(t *testing.T) {
	calc := service.NewQuantityCalculator()

	tests := []struct {
		name            string
		area            string
		category        string
		pestDescriptors []string
		wantCalculated  string
		wantRounded     string
	}{
		{
			name:            "insektisida moderate infestation",
			area:            "5",
			category:        domain.CategoryInsektisida,
			pestDescriptors: []string{"wereng sedang"},
			wantCalculated:  "9.9", // 5 x 1.5 x 1.2 x 1.1
			wantRounded:     "10",
		},
		{
			name:            "fungisida normal intensity",
			area:            "2",
			category:        domain.CategoryFungisida,
			pestDescriptors: []string{"blas"},
			wantCalculated:  "4.4", // 2 x 2.0 x 1.0 x 1.1
			wantRounded:     "4.5",
		},
		{
			name:            "severe marker wins over moderate",
			area:            "1",
			category:        domain.CategoryHerbisida,
			pestDescriptors: []string{"gulma sedang", "rumput parah"},
			wantCalculated:  "4.95", // 1 x 3.0 x 1.5 x 1.1
			wantRounded:     "5",
		},
		{
			name:           "unknown category falls back to default rate",
			area:           "1",
			category:       "moluskisida",
			wantCalculated: "2.2", // 1 x 2.0 x 1.0 x 1.1
			wantRounded:    "2.25",
		},
		{
			name:            "english severity marker",
			area:            "3",
			category:        domain.CategoryAkarisida,
			pestDescriptors: []string{"severe tungau outbreak"},
			wantCalculated:  "7.92", // 3 x 1.6 x 1.5 x 1.1
			wantRounded:     "8",
		},
		{
			name:           "exact quarter is not rounded up further",
			area:           "2.5",
			category:       domain.CategoryHerbisida,
			wantCalculated: "8.25", // 2.5 x 3.0 x 1.0 x 1.1
			wantRounded:    "8.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			area, err := decimal.NewFromString(tt.area)
			require.NoError(t, err)

			result, err := calc.Calculate(area, tt.category, tt.pestDescriptors)
			require.NoError(t, err)

			assert.True(t, result.CalculatedQty.Equal(decimal.RequireFromString(tt.wantCalculated)),
				"calculated: got %s, want %s", result.CalculatedQty, tt.wantCalculated)
			assert.True(t, result.RoundedQty.Equal(decimal.RequireFromString(tt.wantRounded)),
				"rounded: got %s, want %s", result.RoundedQty, tt.wantRounded)
			assert.Equal(t, "liter", result.Unit)
			assert.NotEmpty(t, result.Explanation)
		})
	}
}

func TestQuantityCalculator_Calculate_NonPositiveArea(t *testing.T) {
	calc := service.NewQuantityCalculator()

	for _, area := range []string{"0", "-1.5"} {
		_, err := calc.Calculate(decimal.RequireFromString(area), domain.CategoryInsektisida, nil)
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	}
}

func TestQuantityCalculator_RoundingNeverGoesDown(t *testing.T) {
	calc := service.NewQuantityCalculator()

	// 1.3 ha x 1.5 x 1.0 x 1.1 = 2.145 -> 2.25
	result, err := calc.Calculate(decimal.RequireFromString("1.3"), domain.CategoryInsektisida, nil)
	require.NoError(t, err)

	assert.True(t, result.RoundedQty.GreaterThanOrEqual(result.CalculatedQty))
	assert.True(t, result.RoundedQty.Equal(decimal.RequireFromString("2.25")),
		"got %s", result.RoundedQty)
}
