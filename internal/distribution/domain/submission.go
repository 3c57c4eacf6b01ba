package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmissionStatus is the lifecycle state of a medicine submission
type SubmissionStatus string

const (
	StatusPending           SubmissionStatus = "pending"
	StatusUnderReview       SubmissionStatus = "under_review"
	StatusApproved          SubmissionStatus = "approved"
	StatusPartiallyApproved SubmissionStatus = "partially_approved"
	StatusRejected          SubmissionStatus = "rejected"
	StatusDistributed       SubmissionStatus = "distributed"
	StatusCompleted         SubmissionStatus = "completed"
	StatusCancelled         SubmissionStatus = "cancelled"
	StatusExpired           SubmissionStatus = "expired"
)

// Priority of a submission
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ApprovableStatuses are the statuses in which a decision may be taken.
var ApprovableStatuses = []SubmissionStatus{StatusPending, StatusUnderReview}

// IsApprovable reports whether a decision may be taken in this status.
func (s SubmissionStatus) IsApprovable() bool {
	for _, st := range ApprovableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// statusTransitions enumerates the allowed status moves. request_revision
// returns a submission to pending so the requester can resubmit; any
// non-terminal status may additionally be cancelled or expired by
// administrative action.
var statusTransitions = map[SubmissionStatus][]SubmissionStatus{
	StatusPending:           {StatusUnderReview, StatusApproved, StatusPartiallyApproved, StatusRejected, StatusPending},
	StatusUnderReview:       {StatusApproved, StatusPartiallyApproved, StatusRejected, StatusPending},
	StatusApproved:          {StatusDistributed},
	StatusPartiallyApproved: {StatusDistributed},
	StatusDistributed:       {StatusCompleted},
}

// CanTransitionTo reports whether the status may move to the target status.
func (s SubmissionStatus) CanTransitionTo(target SubmissionStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StatusCancelled || target == StatusExpired {
		return true
	}
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Submission is a request for medicines tied to an affected area and pest list.
// Never deleted; only status-transitioned to a terminal state.
type Submission struct {
	ID            string           `json:"id" db:"id"`
	Status        SubmissionStatus `json:"status" db:"status"`
	Priority      Priority         `json:"priority" db:"priority"`
	AffectedArea  decimal.Decimal  `json:"affected_area" db:"affected_area"` // hectares
	PestTargets   []string         `json:"pest_targets" db:"-"`
	Items         []SubmissionItem `json:"items" db:"-"`
	RequesterID   string           `json:"requester_id" db:"requester_id"`
	ReviewerID    *string          `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewerNotes *string          `json:"reviewer_notes,omitempty" db:"reviewer_notes"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// Item returns the submission item with the given ID, or nil.
func (s *Submission) Item(itemID string) *SubmissionItem {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// SubmissionItem is one requested medicine line. Owned exclusively by its
// submission; approved quantity defaults to zero and is set only on approval.
type SubmissionItem struct {
	ID                string          `json:"id" db:"id"`
	SubmissionID      string          `json:"submission_id" db:"submission_id"`
	MedicineID        string          `json:"medicine_id" db:"medicine_id"`
	MedicineName      string          `json:"medicine_name" db:"medicine_name"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity" db:"requested_quantity"`
	ApprovedQuantity  decimal.Decimal `json:"approved_quantity" db:"approved_quantity"`
	Unit              string          `json:"unit" db:"unit"`
	Notes             *string         `json:"notes,omitempty" db:"notes"`
}
