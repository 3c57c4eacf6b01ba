package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ApprovalService validates and executes approval decisions. Validation is
// fail-fast: rules are checked in order and the first failure wins. The
// commit itself is delegated to the store's conditional update, which is the
// per-submission mutual exclusion: a decision racing a concurrent status
// change loses with a conflict.
type ApprovalService struct {
	store        SubmissionStore
	catalog      CatalogReader
	permissions  PermissionChecker
	hook         DecisionHook
	maxBatchSize int
	logger       *logger.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	store SubmissionStore,
	catalog CatalogReader,
	permissions PermissionChecker,
	hook DecisionHook,
	maxBatchSize int,
	log *logger.Logger,
) *ApprovalService {
	if maxBatchSize <= 0 {
		maxBatchSize = 50
	}
	return &ApprovalService{
		store:        store,
		catalog:      catalog,
		permissions:  permissions,
		hook:         hook,
		maxBatchSize: maxBatchSize,
		logger:       log,
	}
}

// ValidateDecision gates a proposed decision. Returns the submission as read
// during validation; its status is the expected status for the commit.
func (s *ApprovalService) ValidateDecision(ctx context.Context, decision *domain.ApprovalDecision, approverID string) (*domain.Submission, error) {
	if !s.permissions.HasApprovalPermission(ctx, approverID) {
		return nil, errors.Forbidden("user does not hold approval permission")
	}

	if !decision.Action.IsValid() {
		return nil, errors.Validation(map[string]string{
			"action": "must be one of: approve, partial_approve, reject, request_revision",
		})
	}

	sub, err := s.store.GetSubmissionWithItems(ctx, decision.SubmissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.NotFound("submission")
	}

	if !sub.Status.IsApprovable() {
		return nil, errors.InvalidState(
			fmt.Sprintf("submission %s is %s and cannot be decided on", sub.ID, sub.Status))
	}

	if err := validatePayload(decision); err != nil {
		return nil, err
	}

	if decision.Action == domain.ActionApprove || decision.Action == domain.ActionPartialApprove {
		if err := s.validateApprovedItems(ctx, sub, decision.ApprovedItems); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

// validatePayload checks action-specific completeness.
func validatePayload(decision *domain.ApprovalDecision) error {
	switch decision.Action {
	case domain.ActionApprove, domain.ActionPartialApprove:
		if len(decision.ApprovedItems) == 0 {
			return errors.Validation(map[string]string{
				"approved_items": "at least one approved item is required",
			})
		}
	case domain.ActionReject:
		if strings.TrimSpace(decision.RejectionReason) == "" {
			return errors.Validation(map[string]string{
				"rejection_reason": "a rejection reason is required",
			})
		}
	case domain.ActionRequestRevision:
		if len(decision.RevisionRequests) == 0 {
			return errors.Validation(map[string]string{
				"revision_requests": "at least one revision request is required",
			})
		}
	}
	return nil
}

// validateApprovedItems checks every approved line against its submission
// item and against live stock, summed per medicine across the whole decision.
func (s *ApprovalService) validateApprovedItems(ctx context.Context, sub *domain.Submission, approved []domain.ApprovedItem) error {
	totalPerMedicine := make(map[string]decimal.Decimal)
	namePerMedicine := make(map[string]string)

	for _, ai := range approved {
		item := sub.Item(ai.ItemID)
		if item == nil {
			return errors.Validation(map[string]string{
				"item_id": fmt.Sprintf("item %s does not belong to submission %s", ai.ItemID, sub.ID),
			})
		}

		if ai.ApprovedQuantity.IsNegative() {
			return errors.Validation(map[string]string{
				"approved_quantity": "must not be negative",
			})
		}

		if ai.ApprovedQuantity.GreaterThan(item.RequestedQuantity) {
			return errors.QuantityExceeded(item.MedicineName,
				ai.ApprovedQuantity.String(), item.RequestedQuantity.String())
		}

		total, ok := totalPerMedicine[item.MedicineID]
		if !ok {
			total = decimal.Zero
		}
		totalPerMedicine[item.MedicineID] = total.Add(ai.ApprovedQuantity)
		namePerMedicine[item.MedicineID] = item.MedicineName
	}

	// Stock is summed live at decision time: lot quantities may have moved
	// since the recommendation was generated.
	for medicineID, total := range totalPerMedicine {
		available, err := s.catalog.AvailableStock(ctx, medicineID)
		if err != nil {
			return err
		}
		if total.GreaterThan(available) {
			return errors.InsufficientStock(namePerMedicine[medicineID],
				total.String(), available.String())
		}
	}

	return nil
}

// ProcessDecision validates a decision and commits it. On success the
// decision hook is invoked once; hook failures are the hook's own concern
// and never affect the committed approval.
func (s *ApprovalService) ProcessDecision(ctx context.Context, decision *domain.ApprovalDecision, approverID string) (*domain.ApprovalResult, error) {
	sub, err := s.ValidateDecision(ctx, decision, approverID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(decision)
	if err != nil {
		return nil, errors.Internal("failed to serialize decision payload")
	}

	notes := decision.Notes
	if decision.Action == domain.ActionReject && notes == "" {
		notes = decision.RejectionReason
	}

	committed, err := s.store.ApplyDecision(ctx, ApplyDecisionParams{
		SubmissionID:   sub.ID,
		Action:         decision.Action,
		ExpectedStatus: sub.Status,
		NewStatus:      decision.Action.StatusFor(),
		ReviewerID:     approverID,
		ReviewerNotes:  notes,
		ApprovedItems:  decision.ApprovedItems,
		AuditPayload:   string(payload),
	})
	if err != nil {
		return nil, err
	}

	result := &domain.ApprovalResult{
		SubmissionID:       sub.ID,
		PreviousStatus:     sub.Status,
		NewStatus:          committed.Status,
		ReviewerID:         approverID,
		ProcessedItemCount: len(decision.ApprovedItems),
	}

	s.logger.Info().
		Str("submission_id", sub.ID).
		Str("action", string(decision.Action)).
		Str("previous_status", string(result.PreviousStatus)).
		Str("new_status", string(result.NewStatus)).
		Str("reviewer_id", approverID).
		Msg("decision committed")

	if s.hook != nil {
		s.hook.DecisionCommitted(ctx, decision, result)
	}

	return result, nil
}

// BulkProcess applies one action to many submissions. Submissions are
// processed independently: one failure never aborts the rest, and every
// outcome is collected. Batches above the cap are rejected up front, before
// any store access.
func (s *ApprovalService) BulkProcess(ctx context.Context, submissionIDs []string, action domain.DecisionAction, approverID, notes string) ([]domain.BulkDecisionResult, error) {
	if len(submissionIDs) == 0 {
		return nil, errors.ValidationMessage("no submission ids provided")
	}
	if len(submissionIDs) > s.maxBatchSize {
		return nil, errors.ValidationMessage(
			fmt.Sprintf("batch of %d submissions exceeds the maximum %d", len(submissionIDs), s.maxBatchSize))
	}

	results := make([]domain.BulkDecisionResult, 0, len(submissionIDs))
	for _, id := range submissionIDs {
		decision, err := s.buildBulkDecision(ctx, id, action, notes)
		if err == nil {
			var result *domain.ApprovalResult
			result, err = s.ProcessDecision(ctx, decision, approverID)
			if err == nil {
				results = append(results, domain.BulkDecisionResult{
					SubmissionID: id,
					Success:      true,
					NewStatus:    result.NewStatus,
				})
				continue
			}
		}

		entry := domain.BulkDecisionResult{
			SubmissionID: id,
			Success:      false,
			Error:        err.Error(),
		}
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			entry.ErrorCode = appErr.Code
			entry.Error = appErr.Message
		}
		results = append(results, entry)
	}

	return results, nil
}

// buildBulkDecision expands a bulk action into a full decision. Approvals
// grant the requested quantity in full; other actions carry the batch notes.
func (s *ApprovalService) buildBulkDecision(ctx context.Context, submissionID string, action domain.DecisionAction, notes string) (*domain.ApprovalDecision, error) {
	decision := &domain.ApprovalDecision{
		SubmissionID: submissionID,
		Action:       action,
		Notes:        notes,
	}

	switch action {
	case domain.ActionApprove, domain.ActionPartialApprove:
		sub, err := s.store.GetSubmissionWithItems(ctx, submissionID)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, errors.NotFound("submission")
		}
		for _, item := range sub.Items {
			decision.ApprovedItems = append(decision.ApprovedItems, domain.ApprovedItem{
				ItemID:           item.ID,
				ApprovedQuantity: item.RequestedQuantity,
			})
		}
	case domain.ActionReject:
		decision.RejectionReason = notes
	case domain.ActionRequestRevision:
		if notes != "" {
			decision.RevisionRequests = []string{notes}
		}
	}

	return decision, nil
}

// UsageSummary folds all submission lines into per-medicine totals.
func (s *ApprovalService) UsageSummary(ctx context.Context) ([]domain.MedicineUsageSummary, error) {
	rows, err := s.store.UsageRows(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SummarizeUsage(rows), nil
}
