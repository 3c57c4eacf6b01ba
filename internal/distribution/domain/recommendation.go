package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecommendationSource distinguishes a scored catalog candidate from the
// zero-valued placeholder produced when candidate data could not be fetched.
type RecommendationSource string

const (
	SourceCatalog  RecommendationSource = "catalog"
	SourceFallback RecommendationSource = "fallback"
)

// MedicineRecommendation is a scored candidate for one submission line.
// Derived, never persisted.
type MedicineRecommendation struct {
	MedicineID         string               `json:"medicine_id"`
	MedicineName       string               `json:"medicine_name"`
	Category           string               `json:"category"`
	StockLotID         string               `json:"stock_lot_id,omitempty"`
	BatchNumber        string               `json:"batch_number,omitempty"`
	Supplier           string               `json:"supplier,omitempty"`
	AvailableStock     decimal.Decimal      `json:"available_stock"`
	RecommendedQty     decimal.Decimal      `json:"recommended_quantity"`
	MaxRecommendedQty  decimal.Decimal      `json:"max_recommended_quantity"`
	UnitPrice          decimal.Decimal      `json:"unit_price"`
	TotalCost          decimal.Decimal      `json:"total_cost"`
	EffectivenessScore int                  `json:"effectiveness_score"` // [0,100]
	CompatibilityScore int                  `json:"compatibility_score"` // [0,100]
	NearestExpiry      *time.Time           `json:"nearest_expiry,omitempty"`
	Source             RecommendationSource `json:"source"`
}

// CombinedScore is the ranking key: 0.6 effectiveness + 0.4 compatibility.
func (r *MedicineRecommendation) CombinedScore() float64 {
	return 0.6*float64(r.EffectivenessScore) + 0.4*float64(r.CompatibilityScore)
}

// QuantityCalculation explains how a required quantity was derived.
type QuantityCalculation struct {
	AffectedArea    decimal.Decimal `json:"affected_area"`
	BaseRate        decimal.Decimal `json:"base_application_rate"`
	IntensityFactor decimal.Decimal `json:"intensity_factor"`
	WasteFactor     decimal.Decimal `json:"waste_factor"`
	CalculatedQty   decimal.Decimal `json:"calculated_quantity"`
	RoundedQty      decimal.Decimal `json:"rounded_quantity"`
	Unit            string          `json:"unit"`
	Explanation     string          `json:"explanation"`
}

// RiskLevel grades a risk dimension
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Weight maps the level onto the 1..3 scale used for aggregation.
func (r RiskLevel) Weight() int {
	switch r {
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 1
	}
}

// RiskAssessment aggregates stock, expiry and effectiveness risk across all
// recommended lines.
type RiskAssessment struct {
	StockRisk         RiskLevel `json:"stock_risk"`
	ExpiryRisk        RiskLevel `json:"expiry_risk"`
	EffectivenessRisk RiskLevel `json:"effectiveness_risk"`
	OverallRisk       RiskLevel `json:"overall_risk"`
	Warnings          []string  `json:"warnings"`
	Recommendations   []string  `json:"recommendations"`
}

// AvailabilityStatus reports whether recommended stock covers the request.
type AvailabilityStatus string

const (
	AvailabilityFull        AvailabilityStatus = "full"
	AvailabilityPartial     AvailabilityStatus = "partial"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// AlternativeReason explains why an alternative medicine was suggested.
type AlternativeReason string

const (
	ReasonInsufficientQuantity AlternativeReason = "insufficient_quantity"
)

// AlternativeSuggestion proposes substitute medicines for an under-stocked line.
type AlternativeSuggestion struct {
	Reason       AlternativeReason        `json:"reason"`
	Alternatives []MedicineRecommendation `json:"alternatives"`
}

// ItemRecommendation is the full recommendation for one submission line.
type ItemRecommendation struct {
	ItemID              string                   `json:"item_id"`
	MedicineID          string                   `json:"medicine_id"`
	RequestedQuantity   decimal.Decimal          `json:"requested_quantity"`
	QuantityCalculation QuantityCalculation      `json:"quantity_calculation"`
	RecommendedOptions  []MedicineRecommendation `json:"recommended_options"`
	OptimalChoice       MedicineRecommendation   `json:"optimal_choice"`
	Alternative         *AlternativeSuggestion   `json:"alternative,omitempty"`
}

// ApprovalRecommendation is the engine's output for a whole submission.
type ApprovalRecommendation struct {
	SubmissionID       string               `json:"submission_id"`
	Items              []ItemRecommendation `json:"items"`
	TotalEstimatedCost decimal.Decimal      `json:"total_estimated_cost"`
	AvailabilityStatus AvailabilityStatus   `json:"availability_status"`
	RiskAssessment     RiskAssessment       `json:"risk_assessment"`
	GeneratedAt        time.Time            `json:"generated_at"`
}
