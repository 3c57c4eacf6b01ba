package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DecisionAction is the reviewer's verdict on a submission
type DecisionAction string

const (
	ActionApprove         DecisionAction = "approve"
	ActionPartialApprove  DecisionAction = "partial_approve"
	ActionReject          DecisionAction = "reject"
	ActionRequestRevision DecisionAction = "request_revision"
)

// StatusFor returns the submission status this action transitions to.
func (a DecisionAction) StatusFor() SubmissionStatus {
	switch a {
	case ActionApprove:
		return StatusApproved
	case ActionPartialApprove:
		return StatusPartiallyApproved
	case ActionReject:
		return StatusRejected
	case ActionRequestRevision:
		return StatusPending
	}
	return ""
}

// IsValid reports whether the action is one of the known decision actions.
func (a DecisionAction) IsValid() bool {
	switch a {
	case ActionApprove, ActionPartialApprove, ActionReject, ActionRequestRevision:
		return true
	}
	return false
}

// ApprovedItem carries the reviewer's per-line adjustment.
type ApprovedItem struct {
	ItemID           string          `json:"item_id"`
	ApprovedQuantity decimal.Decimal `json:"approved_quantity"`
	Notes            *string         `json:"notes,omitempty"`
}

// ApprovalDecision is the input to the approval validator and executor.
type ApprovalDecision struct {
	SubmissionID     string         `json:"submission_id"`
	Action           DecisionAction `json:"action"`
	ApprovedItems    []ApprovedItem `json:"approved_items,omitempty"`
	RejectionReason  string         `json:"rejection_reason,omitempty"`
	RevisionRequests []string       `json:"revision_requests,omitempty"`
	Notes            string         `json:"notes,omitempty"`
}

// ApprovalResult reports the outcome of a committed decision.
type ApprovalResult struct {
	SubmissionID       string           `json:"submission_id"`
	PreviousStatus     SubmissionStatus `json:"previous_status"`
	NewStatus          SubmissionStatus `json:"new_status"`
	ReviewerID         string           `json:"reviewer_id"`
	ProcessedItemCount int              `json:"processed_item_count"`
}

// BulkDecisionResult is the per-submission outcome of a bulk decision call.
// Failures are collected, not propagated, so one bad submission does not
// abort the rest of the batch.
type BulkDecisionResult struct {
	SubmissionID string           `json:"submission_id"`
	Success      bool             `json:"success"`
	NewStatus    SubmissionStatus `json:"new_status,omitempty"`
	Error        string           `json:"error,omitempty"`
	ErrorCode    string           `json:"error_code,omitempty"`
}

// AuditEntry records a committed decision for traceability.
type AuditEntry struct {
	ID             string           `json:"id" db:"id"`
	SubmissionID   string           `json:"submission_id" db:"submission_id"`
	ActorID        string           `json:"actor_id" db:"actor_id"`
	Action         string           `json:"action" db:"action"`
	PreviousStatus SubmissionStatus `json:"previous_status" db:"previous_status"`
	NewStatus      SubmissionStatus `json:"new_status" db:"new_status"`
	Payload        string           `json:"payload" db:"payload"` // JSON snapshot of the decision
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
