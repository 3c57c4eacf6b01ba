package service

import (
	"fmt"
	"strings"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Base application rates in liters (or kg) per hectare, keyed by lower-cased
// medicine category. Unknown categories fall back to defaultApplicationRate.
var baseApplicationRates = map[string]decimal.Decimal{
	domain.CategoryInsektisida: decimal.NewFromFloat(1.5),
	domain.CategoryFungisida:   decimal.NewFromFloat(2.0),
	domain.CategoryHerbisida:   decimal.NewFromFloat(3.0),
	domain.CategoryBakterisida: decimal.NewFromFloat(1.8),
	domain.CategoryAkarisida:   decimal.NewFromFloat(1.6),
}

var defaultApplicationRate = decimal.NewFromFloat(2.0)

// Intensity factors derived from severity markers in the pest descriptors.
var (
	severeFactor   = decimal.NewFromFloat(1.5)
	moderateFactor = decimal.NewFromFloat(1.2)
	normalFactor   = decimal.NewFromInt(1)

	// wasteFactor is a fixed 10% application allowance.
	wasteFactor = decimal.NewFromFloat(1.1)

	four = decimal.NewFromInt(4)
)

var (
	severeMarkers   = []string{"parah", "berat", "severe"}
	moderateMarkers = []string{"sedang", "moderate"}
)

// QuantityCalculator derives required medicine quantities from the affected
// area and pest severity. Pure; the only failure mode is a non-positive area.
type QuantityCalculator struct{}

// NewQuantityCalculator creates a new quantity calculator
func NewQuantityCalculator() *QuantityCalculator {
	return &QuantityCalculator{}
}

// Calculate computes the required quantity for treating the affected area
// with a medicine of the given category:
//
//	quantity = area x baseRate x intensityFactor x wasteFactor
//
// rounded UP to the nearest quarter unit. Rounding never goes down since
// under-provisioning is the unsafe direction.
func (c *QuantityCalculator) Calculate(area decimal.Decimal, category string, pestDescriptors []string) (domain.QuantityCalculation, error) {
	if !area.IsPositive() {
		return domain.QuantityCalculation{}, errors.Validation(map[string]string{
			"affected_area": "must be greater than zero",
		})
	}

	baseRate, ok := baseApplicationRates[strings.ToLower(category)]
	if !ok {
		baseRate = defaultApplicationRate
	}

	intensity := intensityFactor(pestDescriptors)

	calculated := area.Mul(baseRate).Mul(intensity).Mul(wasteFactor)
	rounded := roundUpToQuarter(calculated)

	return domain.QuantityCalculation{
		AffectedArea:    area,
		BaseRate:        baseRate,
		IntensityFactor: intensity,
		WasteFactor:     wasteFactor,
		CalculatedQty:   calculated,
		RoundedQty:      rounded,
		Unit:            "liter",
		Explanation: fmt.Sprintf(
			"%s ha x %s per ha x %s intensity x %s waste allowance = %s, rounded up to %s",
			area.String(), baseRate.String(), intensity.String(),
			wasteFactor.String(), calculated.String(), rounded.String(),
		),
	}, nil
}

// intensityFactor inspects the free-text pest descriptors for severity
// markers. Severe markers win over moderate ones.
func intensityFactor(pestDescriptors []string) decimal.Decimal {
	moderate := false
	for _, p := range pestDescriptors {
		lowered := strings.ToLower(p)
		for _, m := range severeMarkers {
			if strings.Contains(lowered, m) {
				return severeFactor
			}
		}
		for _, m := range moderateMarkers {
			if strings.Contains(lowered, m) {
				moderate = true
			}
		}
	}
	if moderate {
		return moderateFactor
	}
	return normalFactor
}

// roundUpToQuarter rounds up to the nearest 0.25: ceil(x*4)/4.
func roundUpToQuarter(q decimal.Decimal) decimal.Decimal {
	return q.Mul(four).Ceil().Div(four)
}
