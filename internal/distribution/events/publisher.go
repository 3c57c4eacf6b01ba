package events

import (
	"context"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/agrimed/agrimed-backend/pkg/messaging"
	"github.com/shopspring/decimal"
)

// eventPublisher is the subset of messaging.Publisher the hook needs.
type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Publisher emits distribution events after decisions commit and when stock
// shortages are detected. All publishing is best-effort: failures are logged
// and never propagated, so a broker outage cannot fail an approval. A nil
// underlying publisher disables publishing entirely.
type Publisher struct {
	publisher eventPublisher
	logger    *logger.Logger
}

// NewPublisher creates a new distribution event publisher
func NewPublisher(publisher *messaging.Publisher, log *logger.Logger) *Publisher {
	p := &Publisher{logger: log}
	if publisher != nil {
		p.publisher = publisher
	}
	return p
}

// DecisionCommitted publishes the event for a committed decision.
func (p *Publisher) DecisionCommitted(ctx context.Context, decision *domain.ApprovalDecision, result *domain.ApprovalResult) {
	if p.publisher == nil {
		return
	}

	eventType := eventTypeFor(decision.Action)
	if eventType == "" {
		return
	}

	notes := decision.Notes
	if decision.Action == domain.ActionReject && notes == "" {
		notes = decision.RejectionReason
	}

	err := p.publisher.Publish(ctx, eventType, messaging.DecisionEvent{
		SubmissionID:       result.SubmissionID,
		Action:             string(decision.Action),
		PreviousStatus:     string(result.PreviousStatus),
		NewStatus:          string(result.NewStatus),
		ReviewerID:         result.ReviewerID,
		ProcessedItemCount: result.ProcessedItemCount,
		Notes:              notes,
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("submission_id", result.SubmissionID).
			Str("event_type", eventType).
			Msg("failed to publish decision event")
	}
}

// StockShortageDetected publishes a shortage event for a submission line.
func (p *Publisher) StockShortageDetected(ctx context.Context, submissionID string, rec *domain.MedicineRecommendation, requested decimal.Decimal) {
	if p.publisher == nil {
		return
	}

	err := p.publisher.Publish(ctx, messaging.EventStockShortageDetected, messaging.StockShortageEvent{
		SubmissionID:      submissionID,
		MedicineID:        rec.MedicineID,
		MedicineName:      rec.MedicineName,
		RequestedQuantity: requested.String(),
		AvailableStock:    rec.AvailableStock.String(),
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("submission_id", submissionID).
			Str("medicine_id", rec.MedicineID).
			Msg("failed to publish stock shortage event")
	}
}

func eventTypeFor(action domain.DecisionAction) string {
	switch action {
	case domain.ActionApprove:
		return messaging.EventSubmissionApproved
	case domain.ActionPartialApprove:
		return messaging.EventSubmissionPartiallyApproved
	case domain.ActionReject:
		return messaging.EventSubmissionRejected
	case domain.ActionRequestRevision:
		return messaging.EventSubmissionRevisionRequested
	}
	return ""
}
