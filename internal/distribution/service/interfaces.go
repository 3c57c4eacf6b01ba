package service

import (
	"context"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/actor"
	"github.com/agrimed/agrimed-backend/pkg/permissions"
	"github.com/shopspring/decimal"
)

// CatalogReader provides read access to the medicine catalog. Medicines are
// returned with their eligible stock lots: quantity > 0 and expiry not in the
// past, ordered by expiry ascending.
type CatalogReader interface {
	FindMedicine(ctx context.Context, id string) (*domain.Medicine, error)
	FindMedicinesByPestTargets(ctx context.Context, pestTargets []string, excludeID string, limit int) ([]*domain.Medicine, error)
	AvailableStock(ctx context.Context, medicineID string) (decimal.Decimal, error)
}

// ApplyDecisionParams carries a validated decision to the store. The store
// commits the status change, item adjustments and audit entry in one
// transaction, keyed on ExpectedStatus: if the submission's status changed
// since validation, the commit fails with a conflict.
type ApplyDecisionParams struct {
	SubmissionID   string
	Action         domain.DecisionAction
	ExpectedStatus domain.SubmissionStatus
	NewStatus      domain.SubmissionStatus
	ReviewerID     string
	ReviewerNotes  string
	ApprovedItems  []domain.ApprovedItem
	AuditPayload   string
}

// SubmissionStore provides access to submissions and their items.
type SubmissionStore interface {
	GetSubmissionWithItems(ctx context.Context, id string) (*domain.Submission, error)
	ApplyDecision(ctx context.Context, params ApplyDecisionParams) (*domain.Submission, error)
	AppendAuditLog(ctx context.Context, entry *domain.AuditEntry) error
	UsageRows(ctx context.Context) ([]domain.UsageRow, error)
}

// PermissionChecker gates approval actions. Injected so real authorization
// can be substituted without touching engine logic.
type PermissionChecker interface {
	HasApprovalPermission(ctx context.Context, userID string) bool
}

// ActorPermissionChecker checks the authenticated actor's permission list
// from the request context.
type ActorPermissionChecker struct{}

// HasApprovalPermission reports whether the context actor may approve
// distribution submissions.
func (ActorPermissionChecker) HasApprovalPermission(ctx context.Context, userID string) bool {
	a := actor.FromContext(ctx)
	if a == nil {
		return false
	}
	if a.ID != userID && !a.IsSystem() {
		return false
	}
	return permissions.HasPermission(a.Permissions, permissions.DistributionApprove)
}

// DecisionHook is invoked once after a decision commits. Hook failures are
// logged and never roll back or fail the approval.
type DecisionHook interface {
	DecisionCommitted(ctx context.Context, decision *domain.ApprovalDecision, result *domain.ApprovalResult)
}
