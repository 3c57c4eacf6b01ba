package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// Risk thresholds. Reproduced as given; behavior parity with the upstream
// review workflow is the contract.
const (
	underStockHighRatio    = 0.5 // more than half the lines under-stocked
	expiringHighRatio      = 0.3 // more than 30% of lines expiring soon
	lowEffectivenessScore  = 70  // a line scoring below this counts as low
	lowEffectivenessRatio  = 0.3 // more than 30% of lines scoring low
	overallHighThreshold   = 2.5 // average weight for high overall risk
	overallMediumThreshold = 1.5 // average weight for medium overall risk
)

var half = decimal.NewFromFloat(0.5)

// RecommendOptions controls recommendation generation.
type RecommendOptions struct {
	IncludeAlternatives bool
	MaxAlternatives     int
	RiskTolerance       domain.RiskLevel
}

// ShortageNotifier is told about detected stock shortages. Best-effort.
type ShortageNotifier interface {
	StockShortageDetected(ctx context.Context, submissionID string, rec *domain.MedicineRecommendation, requested decimal.Decimal)
}

// RecommendationService produces approval recommendations for submissions.
// Read-only; safe to run concurrently and redundantly.
type RecommendationService struct {
	store             SubmissionStore
	catalog           CatalogReader
	calculator        *QuantityCalculator
	scorer            *MedicineScorer
	notifier          ShortageNotifier
	expiryWarningDays int
	logger            *logger.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	store SubmissionStore,
	catalog CatalogReader,
	calculator *QuantityCalculator,
	scorer *MedicineScorer,
	notifier ShortageNotifier,
	expiryWarningDays int,
	log *logger.Logger,
) *RecommendationService {
	if expiryWarningDays <= 0 {
		expiryWarningDays = 90
	}
	return &RecommendationService{
		store:             store,
		catalog:           catalog,
		calculator:        calculator,
		scorer:            scorer,
		notifier:          notifier,
		expiryWarningDays: expiryWarningDays,
		logger:            log,
	}
}

// Generate builds the full recommendation for a submission. Candidate fetch
// failures degrade to a fallback recommendation per line instead of aborting
// the call, so the caller always gets a complete result.
func (s *RecommendationService) Generate(ctx context.Context, submissionID string, opts RecommendOptions) (*domain.ApprovalRecommendation, error) {
	if opts.MaxAlternatives <= 0 {
		opts.MaxAlternatives = 3
	}

	sub, err := s.store.GetSubmissionWithItems(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.NotFound("submission")
	}

	result := &domain.ApprovalRecommendation{
		SubmissionID:       submissionID,
		Items:              make([]domain.ItemRecommendation, 0, len(sub.Items)),
		TotalEstimatedCost: decimal.Zero,
		GeneratedAt:        time.Now().UTC(),
	}

	for i := range sub.Items {
		itemRec, err := s.recommendItem(ctx, sub, &sub.Items[i], opts)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, itemRec)
		result.TotalEstimatedCost = result.TotalEstimatedCost.Add(itemRec.OptimalChoice.TotalCost)
	}

	result.AvailabilityStatus = availabilityStatus(result.Items)
	result.RiskAssessment = s.assessRisk(result.Items, opts.RiskTolerance)

	return result, nil
}

// recommendItem builds the recommendation for a single submission line.
func (s *RecommendationService) recommendItem(ctx context.Context, sub *domain.Submission, item *domain.SubmissionItem, opts RecommendOptions) (domain.ItemRecommendation, error) {
	candidates := make([]*domain.Medicine, 0, opts.MaxAlternatives+1)
	category := ""

	primary, err := s.catalog.FindMedicine(ctx, item.MedicineID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", sub.ID).
			Str("medicine_id", item.MedicineID).
			Msg("primary medicine fetch failed, degrading to fallback")
	} else if primary != nil {
		candidates = append(candidates, primary)
		category = primary.Category
	}

	if opts.IncludeAlternatives {
		others, err := s.catalog.FindMedicinesByPestTargets(ctx, sub.PestTargets, item.MedicineID, opts.MaxAlternatives*2)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("submission_id", sub.ID).
				Msg("alternative candidate fetch failed")
		} else {
			candidates = append(candidates, others...)
		}
	}

	calc, err := s.calculator.Calculate(sub.AffectedArea, category, sub.PestTargets)
	if err != nil {
		return domain.ItemRecommendation{}, err
	}
	required := calc.RoundedQty

	itemRec := domain.ItemRecommendation{
		ItemID:              item.ID,
		MedicineID:          item.MedicineID,
		RequestedQuantity:   item.RequestedQuantity,
		QuantityCalculation: calc,
	}

	if len(candidates) == 0 {
		// Fetch failed entirely: the line still gets an optimal choice, a
		// tagged zero-valued placeholder referencing the requested medicine.
		itemRec.OptimalChoice = s.scorer.Fallback(item.MedicineID, item.MedicineName)
		itemRec.RecommendedOptions = []domain.MedicineRecommendation{itemRec.OptimalChoice}
		return itemRec, nil
	}

	scored := make([]domain.MedicineRecommendation, 0, len(candidates))
	for _, medicine := range candidates {
		scored = append(scored, s.scorer.Score(medicine, sub.PestTargets, required))
	}
	s.scorer.Rank(scored)

	limit := opts.MaxAlternatives + 1
	if len(scored) < limit {
		limit = len(scored)
	}
	itemRec.RecommendedOptions = scored[:limit]
	itemRec.OptimalChoice = scored[0]

	if itemRec.OptimalChoice.AvailableStock.LessThan(item.RequestedQuantity) {
		itemRec.Alternative = s.findAlternatives(ctx, sub, item, required, opts)
		if s.notifier != nil {
			s.notifier.StockShortageDetected(ctx, sub.ID, &itemRec.OptimalChoice, item.RequestedQuantity)
		}
	}

	return itemRec, nil
}

// findAlternatives searches for substitute medicines when the optimal choice
// cannot cover the requested quantity. A substitute qualifies when one of its
// lots alone holds at least half the required quantity.
func (s *RecommendationService) findAlternatives(ctx context.Context, sub *domain.Submission, item *domain.SubmissionItem, required decimal.Decimal, opts RecommendOptions) *domain.AlternativeSuggestion {
	others, err := s.catalog.FindMedicinesByPestTargets(ctx, sub.PestTargets, item.MedicineID, opts.MaxAlternatives*2)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", sub.ID).
			Msg("alternative search failed")
		return nil
	}

	minLotQty := required.Mul(half)
	alternatives := make([]domain.MedicineRecommendation, 0, len(others))
	for _, medicine := range others {
		if !hasLotWithAtLeast(medicine, minLotQty) {
			continue
		}
		alternatives = append(alternatives, s.scorer.Score(medicine, sub.PestTargets, required))
	}
	if len(alternatives) == 0 {
		return nil
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].EffectivenessScore > alternatives[j].EffectivenessScore
	})
	if len(alternatives) > opts.MaxAlternatives {
		alternatives = alternatives[:opts.MaxAlternatives]
	}

	return &domain.AlternativeSuggestion{
		Reason:       domain.ReasonInsufficientQuantity,
		Alternatives: alternatives,
	}
}

func hasLotWithAtLeast(medicine *domain.Medicine, minQty decimal.Decimal) bool {
	for _, lot := range medicine.StockLots {
		if lot.Quantity.GreaterThanOrEqual(minQty) {
			return true
		}
	}
	return false
}

// availabilityStatus is full when every line is covered, unavailable when
// none are, partial otherwise.
func availabilityStatus(items []domain.ItemRecommendation) domain.AvailabilityStatus {
	if len(items) == 0 {
		return domain.AvailabilityFull
	}

	covered := 0
	for _, it := range items {
		if it.OptimalChoice.AvailableStock.GreaterThanOrEqual(it.RequestedQuantity) {
			covered++
		}
	}

	switch covered {
	case len(items):
		return domain.AvailabilityFull
	case 0:
		return domain.AvailabilityUnavailable
	default:
		return domain.AvailabilityPartial
	}
}

// assessRisk grades stock, expiry and effectiveness over every line's
// optimal choice, then averages the three onto an overall level.
func (s *RecommendationService) assessRisk(items []domain.ItemRecommendation, tolerance domain.RiskLevel) domain.RiskAssessment {
	assessment := domain.RiskAssessment{
		StockRisk:         domain.RiskLow,
		ExpiryRisk:        domain.RiskLow,
		EffectivenessRisk: domain.RiskLow,
		OverallRisk:       domain.RiskLow,
		Warnings:          []string{},
		Recommendations:   []string{},
	}
	total := len(items)
	if total == 0 {
		return assessment
	}

	underStocked := 0
	expiringSoon := 0
	lowEffectiveness := 0
	expiryCutoff := time.Now().AddDate(0, 0, s.expiryWarningDays)

	for _, it := range items {
		if it.OptimalChoice.AvailableStock.LessThan(it.RequestedQuantity) {
			underStocked++
		}
		if it.OptimalChoice.NearestExpiry != nil && it.OptimalChoice.NearestExpiry.Before(expiryCutoff) {
			expiringSoon++
		}
		if it.OptimalChoice.EffectivenessScore < lowEffectivenessScore {
			lowEffectiveness++
		}
	}

	if underStocked > 0 {
		assessment.StockRisk = domain.RiskMedium
		if float64(underStocked) > underStockHighRatio*float64(total) {
			assessment.StockRisk = domain.RiskHigh
		}
		assessment.Warnings = append(assessment.Warnings,
			fmt.Sprintf("%d of %d requested lines exceed available stock", underStocked, total))
		assessment.Recommendations = append(assessment.Recommendations,
			"consider partial approval or the suggested alternative medicines")
	}

	if expiringSoon > 0 {
		assessment.ExpiryRisk = domain.RiskMedium
		if float64(expiringSoon) > expiringHighRatio*float64(total) {
			assessment.ExpiryRisk = domain.RiskHigh
		}
		assessment.Warnings = append(assessment.Warnings,
			fmt.Sprintf("%d of %d recommended lots expire within %d days", expiringSoon, total, s.expiryWarningDays))
		assessment.Recommendations = append(assessment.Recommendations,
			"prioritize the earliest-expiring lots during distribution")
	}

	if lowEffectiveness > 0 {
		assessment.EffectivenessRisk = domain.RiskMedium
		if float64(lowEffectiveness) > lowEffectivenessRatio*float64(total) {
			assessment.EffectivenessRisk = domain.RiskHigh
		}
		assessment.Warnings = append(assessment.Warnings,
			fmt.Sprintf("%d of %d lines score below %d effectiveness against the reported pests", lowEffectiveness, total, lowEffectivenessScore))
		assessment.Recommendations = append(assessment.Recommendations,
			"review alternatives with better pest coverage before approving")
	}

	avg := float64(assessment.StockRisk.Weight()+assessment.ExpiryRisk.Weight()+assessment.EffectivenessRisk.Weight()) / 3.0
	switch {
	case avg >= overallHighThreshold:
		assessment.OverallRisk = domain.RiskHigh
	case avg >= overallMediumThreshold:
		assessment.OverallRisk = domain.RiskMedium
	}

	if tolerance != "" && assessment.OverallRisk.Weight() > tolerance.Weight() {
		assessment.Warnings = append(assessment.Warnings,
			fmt.Sprintf("overall risk %s exceeds the requested tolerance %s", assessment.OverallRisk, tolerance))
	}

	return assessment
}
