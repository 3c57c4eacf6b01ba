package service

import (
	"math"
	"sort"
	"strings"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/shopspring/decimal"
)

// Scores assigned when a medicine declares no pest targets at all:
// unknown-but-plausible rather than useless.
const (
	unknownTargetsEffectiveness = 50
	unknownTargetsCompatibility = 30
)

// categoryPestKeywords maps a medicine category to pest keywords it is
// generally effective against. A keyword hit counts as half a direct match.
var categoryPestKeywords = map[string][]string{
	domain.CategoryInsektisida: {"wereng", "ulat", "kutu", "penggerek", "walang"},
	domain.CategoryFungisida:   {"blas", "busuk", "jamur", "karat", "bercak"},
	domain.CategoryHerbisida:   {"gulma", "rumput", "teki"},
	domain.CategoryBakterisida: {"hawar", "bakteri", "kresek"},
	domain.CategoryAkarisida:   {"tungau"},
}

// MedicineScorer scores catalog candidates against a submission's pest list.
// Pure; stock lots are taken as the snapshot loaded by the catalog reader.
type MedicineScorer struct{}

// NewMedicineScorer creates a new medicine scorer
func NewMedicineScorer() *MedicineScorer {
	return &MedicineScorer{}
}

// Score builds a recommendation for one candidate medicine. required is the
// quantity the calling line needs (from the quantity calculator).
func (s *MedicineScorer) Score(medicine *domain.Medicine, pestTargets []string, required decimal.Decimal) domain.MedicineRecommendation {
	rec := domain.MedicineRecommendation{
		MedicineID:   medicine.ID,
		MedicineName: medicine.Name,
		Category:     medicine.Category,
		UnitPrice:    medicine.UnitPrice,
		Source:       domain.SourceCatalog,
	}

	rec.EffectivenessScore = s.effectivenessScore(medicine, pestTargets)
	rec.CompatibilityScore = s.compatibilityScore(medicine, pestTargets)

	available := medicine.AvailableStock()
	rec.AvailableStock = available
	rec.MaxRecommendedQty = available
	rec.RecommendedQty = decimal.Min(required, available)
	rec.TotalCost = rec.RecommendedQty.Mul(medicine.UnitPrice)

	if lot := medicine.NearestLot(); lot != nil {
		rec.StockLotID = lot.ID
		rec.BatchNumber = lot.BatchNumber
		rec.Supplier = lot.Supplier
		expiry := lot.ExpiryDate
		rec.NearestExpiry = &expiry
	}

	return rec
}

// Fallback builds the zero-valued placeholder used when candidate data could
// not be fetched. A valid, low-confidence outcome, not an error.
func (s *MedicineScorer) Fallback(medicineID, medicineName string) domain.MedicineRecommendation {
	return domain.MedicineRecommendation{
		MedicineID:        medicineID,
		MedicineName:      medicineName,
		AvailableStock:    decimal.Zero,
		RecommendedQty:    decimal.Zero,
		MaxRecommendedQty: decimal.Zero,
		UnitPrice:         decimal.Zero,
		TotalCost:         decimal.Zero,
		Source:            domain.SourceFallback,
	}
}

// Rank sorts recommendations descending by the 0.6/0.4 combined score.
// The sort is stable so fetch order breaks ties.
func (s *MedicineScorer) Rank(recs []domain.MedicineRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CombinedScore() > recs[j].CombinedScore()
	})
}

// effectivenessScore counts, per requested pest, a direct substring match
// against the declared targets as 1.0 and a category-keyword match as 0.5.
func (s *MedicineScorer) effectivenessScore(medicine *domain.Medicine, pestTargets []string) int {
	if len(medicine.PestTargets) == 0 {
		return unknownTargetsEffectiveness
	}
	if len(pestTargets) == 0 {
		return unknownTargetsEffectiveness
	}

	keywords := categoryPestKeywords[strings.ToLower(medicine.Category)]

	sum := 0.0
	for _, pest := range pestTargets {
		switch {
		case directMatch(medicine.PestTargets, pest):
			sum += 1.0
		case keywordMatch(keywords, pest):
			sum += 0.5
		}
	}

	return clampScore(math.Round(100 * sum / float64(len(pestTargets))))
}

// compatibilityScore is the fraction of requested pests with a direct match,
// as a percentage.
func (s *MedicineScorer) compatibilityScore(medicine *domain.Medicine, pestTargets []string) int {
	if len(medicine.PestTargets) == 0 {
		return unknownTargetsCompatibility
	}
	if len(pestTargets) == 0 {
		return unknownTargetsCompatibility
	}

	matched := 0
	for _, pest := range pestTargets {
		if directMatch(medicine.PestTargets, pest) {
			matched++
		}
	}

	return clampScore(math.Round(100 * float64(matched) / float64(len(pestTargets))))
}

// directMatch normalizes both sides and tests substring containment in either
// direction, so "wereng sedang" matches a declared target of "wereng".
func directMatch(declaredTargets []string, pest string) bool {
	p := strings.ToLower(strings.TrimSpace(pest))
	if p == "" {
		return false
	}
	for _, target := range declaredTargets {
		t := strings.ToLower(strings.TrimSpace(target))
		if t == "" {
			continue
		}
		if strings.Contains(p, t) || strings.Contains(t, p) {
			return true
		}
	}
	return false
}

func keywordMatch(keywords []string, pest string) bool {
	p := strings.ToLower(pest)
	for _, kw := range keywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
