package handler

import (
	"net/http"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	"github.com/agrimed/agrimed-backend/pkg/actor"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/agrimed/agrimed-backend/pkg/httputil"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ApprovalHandler handles decision endpoints
type ApprovalHandler struct {
	service *service.ApprovalService
	logger  *logger.Logger
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(svc *service.ApprovalService, log *logger.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		service: svc,
		logger:  log,
	}
}

type approvedItemRequest struct {
	ItemID           string  `json:"item_id" validate:"required"`
	ApprovedQuantity string  `json:"approved_quantity" validate:"required"`
	Notes            *string `json:"notes,omitempty"`
}

type decisionRequest struct {
	Action           string                `json:"action" validate:"required,oneof=approve partial_approve reject request_revision"`
	ApprovedItems    []approvedItemRequest `json:"approved_items,omitempty" validate:"dive"`
	RejectionReason  string                `json:"rejection_reason,omitempty"`
	RevisionRequests []string              `json:"revision_requests,omitempty"`
	Notes            string                `json:"notes,omitempty"`
}

func (req *decisionRequest) toDomain(submissionID string) (*domain.ApprovalDecision, error) {
	decision := &domain.ApprovalDecision{
		SubmissionID:     submissionID,
		Action:           domain.DecisionAction(req.Action),
		RejectionReason:  req.RejectionReason,
		RevisionRequests: req.RevisionRequests,
		Notes:            req.Notes,
	}

	for _, item := range req.ApprovedItems {
		qty, err := decimal.NewFromString(item.ApprovedQuantity)
		if err != nil {
			return nil, errors.Validation(map[string]string{
				"approved_quantity": "must be a decimal number",
			})
		}
		decision.ApprovedItems = append(decision.ApprovedItems, domain.ApprovedItem{
			ItemID:           item.ItemID,
			ApprovedQuantity: qty,
			Notes:            item.Notes,
		})
	}

	return decision, nil
}

// Decide processes a decision for a single submission
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	var req decisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	decision, err := req.toDomain(submissionID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	a := actor.FromContext(r.Context())
	if a == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	result, err := h.service.ProcessDecision(r.Context(), decision, a.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

type bulkDecisionRequest struct {
	SubmissionIDs []string `json:"submission_ids" validate:"required,min=1"`
	Action        string   `json:"action" validate:"required,oneof=approve partial_approve reject request_revision"`
	Notes         string   `json:"notes,omitempty"`
}

// BulkDecide applies one action to a batch of submissions
func (h *ApprovalHandler) BulkDecide(w http.ResponseWriter, r *http.Request) {
	var req bulkDecisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	a := actor.FromContext(r.Context())
	if a == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	results, err := h.service.BulkProcess(r.Context(), req.SubmissionIDs,
		domain.DecisionAction(req.Action), a.ID, req.Notes)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// UsageSummary reports per-medicine usage totals across all submissions
func (h *ApprovalHandler) UsageSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.UsageSummary(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}
