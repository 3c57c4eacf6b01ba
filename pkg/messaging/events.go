package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Decision events, published after a decision commits
	EventSubmissionApproved          = "distribution.submission.approved"
	EventSubmissionPartiallyApproved = "distribution.submission.partially_approved"
	EventSubmissionRejected          = "distribution.submission.rejected"
	EventSubmissionRevisionRequested = "distribution.submission.revision_requested"

	// Stock events
	EventStockShortageDetected = "distribution.stock.shortage_detected"
)

// Exchange names
const (
	ExchangeDistributionEvents = "distribution.events"
)

// Event is the base event structure published to RabbitMQ
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates an event envelope with the payload marshalled into Data.
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Data:          payload,
	}, nil
}

// DecisionEvent is the payload for distribution.submission.* events.
type DecisionEvent struct {
	SubmissionID       string `json:"submission_id"`
	Action             string `json:"action"`
	PreviousStatus     string `json:"previous_status"`
	NewStatus          string `json:"new_status"`
	ReviewerID         string `json:"reviewer_id"`
	ProcessedItemCount int    `json:"processed_item_count"`
	Notes              string `json:"notes,omitempty"`
}

// StockShortageEvent is the payload for distribution.stock.shortage_detected.
type StockShortageEvent struct {
	SubmissionID      string `json:"submission_id"`
	MedicineID        string `json:"medicine_id"`
	MedicineName      string `json:"medicine_name"`
	RequestedQuantity string `json:"requested_quantity"`
	AvailableStock    string `json:"available_stock"`
}
