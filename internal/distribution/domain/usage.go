package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// UsageRow is one submission line as read from the store for usage statistics.
type UsageRow struct {
	MedicineID        string          `json:"medicine_id" db:"medicine_id"`
	MedicineName      string          `json:"medicine_name" db:"medicine_name"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity" db:"requested_quantity"`
	ApprovedQuantity  decimal.Decimal `json:"approved_quantity" db:"approved_quantity"`
}

// MedicineUsageSummary is an immutable per-medicine aggregate.
type MedicineUsageSummary struct {
	MedicineID     string          `json:"medicine_id"`
	MedicineName   string          `json:"medicine_name"`
	LineCount      int             `json:"line_count"`
	TotalRequested decimal.Decimal `json:"total_requested"`
	TotalApproved  decimal.Decimal `json:"total_approved"`
}

// SummarizeUsage folds submission lines into per-medicine summaries,
// keyed by medicine id and returned sorted by medicine name.
func SummarizeUsage(rows []UsageRow) []MedicineUsageSummary {
	byMedicine := make(map[string]MedicineUsageSummary)

	for _, row := range rows {
		s, ok := byMedicine[row.MedicineID]
		if !ok {
			s = MedicineUsageSummary{
				MedicineID:     row.MedicineID,
				MedicineName:   row.MedicineName,
				TotalRequested: decimal.Zero,
				TotalApproved:  decimal.Zero,
			}
		}
		s.LineCount++
		s.TotalRequested = s.TotalRequested.Add(row.RequestedQuantity)
		s.TotalApproved = s.TotalApproved.Add(row.ApprovedQuantity)
		byMedicine[row.MedicineID] = s
	}

	summaries := make([]MedicineUsageSummary, 0, len(byMedicine))
	for _, s := range byMedicine {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].MedicineName < summaries[j].MedicineName
	})

	return summaries
}
