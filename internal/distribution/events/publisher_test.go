package events

import (
	"context"
	"testing"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/agrimed/agrimed-backend/pkg/messaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	eventTypes []string
	payloads   []interface{}
	err        error
}

func (r *recordingPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	r.eventTypes = append(r.eventTypes, eventType)
	r.payloads = append(r.payloads, data)
	return r.err
}

func testPublisher(rec *recordingPublisher) *Publisher {
	return &Publisher{publisher: rec, logger: logger.New("test", "test")}
}

func TestPublisher_DecisionCommitted_EventTypes(t *testing.T) {
	tests := []struct {
		action    domain.DecisionAction
		eventType string
	}{
		{domain.ActionApprove, messaging.EventSubmissionApproved},
		{domain.ActionPartialApprove, messaging.EventSubmissionPartiallyApproved},
		{domain.ActionReject, messaging.EventSubmissionRejected},
		{domain.ActionRequestRevision, messaging.EventSubmissionRevisionRequested},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			rec := &recordingPublisher{}
			p := testPublisher(rec)

			p.DecisionCommitted(context.Background(),
				&domain.ApprovalDecision{SubmissionID: "sub-1", Action: tt.action, RejectionReason: "why not"},
				&domain.ApprovalResult{
					SubmissionID:   "sub-1",
					PreviousStatus: domain.StatusPending,
					NewStatus:      tt.action.StatusFor(),
					ReviewerID:     "reviewer-1",
				})

			require.Len(t, rec.eventTypes, 1)
			assert.Equal(t, tt.eventType, rec.eventTypes[0])

			payload := rec.payloads[0].(messaging.DecisionEvent)
			assert.Equal(t, "sub-1", payload.SubmissionID)
			assert.Equal(t, string(tt.action), payload.Action)
			assert.Equal(t, "reviewer-1", payload.ReviewerID)
		})
	}
}

func TestPublisher_DecisionCommitted_RejectFallsBackToReason(t *testing.T) {
	rec := &recordingPublisher{}
	p := testPublisher(rec)

	p.DecisionCommitted(context.Background(),
		&domain.ApprovalDecision{
			SubmissionID:    "sub-1",
			Action:          domain.ActionReject,
			RejectionReason: "stock reserved",
		},
		&domain.ApprovalResult{SubmissionID: "sub-1", NewStatus: domain.StatusRejected})

	payload := rec.payloads[0].(messaging.DecisionEvent)
	assert.Equal(t, "stock reserved", payload.Notes)
}

func TestPublisher_PublishFailureIsSwallowed(t *testing.T) {
	rec := &recordingPublisher{err: assert.AnError}
	p := testPublisher(rec)

	// Must not panic or surface the error in any way.
	p.DecisionCommitted(context.Background(),
		&domain.ApprovalDecision{SubmissionID: "sub-1", Action: domain.ActionApprove},
		&domain.ApprovalResult{SubmissionID: "sub-1", NewStatus: domain.StatusApproved})

	require.Len(t, rec.eventTypes, 1)
}

func TestPublisher_NilUnderlyingPublisherIsNoop(t *testing.T) {
	p := NewPublisher(nil, logger.New("test", "test"))

	p.DecisionCommitted(context.Background(),
		&domain.ApprovalDecision{SubmissionID: "sub-1", Action: domain.ActionApprove},
		&domain.ApprovalResult{SubmissionID: "sub-1"})
	p.StockShortageDetected(context.Background(), "sub-1",
		&domain.MedicineRecommendation{MedicineID: "med-1"}, decimal.NewFromInt(10))
}

func TestPublisher_StockShortageDetected(t *testing.T) {
	rec := &recordingPublisher{}
	p := testPublisher(rec)

	p.StockShortageDetected(context.Background(), "sub-1",
		&domain.MedicineRecommendation{
			MedicineID:     "med-1",
			MedicineName:   "Prevathon",
			AvailableStock: decimal.RequireFromString("3.5"),
		},
		decimal.RequireFromString("10"))

	require.Len(t, rec.eventTypes, 1)
	assert.Equal(t, messaging.EventStockShortageDetected, rec.eventTypes[0])

	payload := rec.payloads[0].(messaging.StockShortageEvent)
	assert.Equal(t, "Prevathon", payload.MedicineName)
	assert.Equal(t, "10", payload.RequestedQuantity)
	assert.Equal(t, "3.5", payload.AvailableStock)
}
