package handler

import (
	"net/http"
	"strconv"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	"github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/agrimed/agrimed-backend/pkg/httputil"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// RecommendationHandler handles recommendation endpoints
type RecommendationHandler struct {
	service         *service.RecommendationService
	calculator      *service.QuantityCalculator
	maxAlternatives int
	logger          *logger.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
// maxAlternatives is the default when the request does not override it.
func NewRecommendationHandler(svc *service.RecommendationService, calc *service.QuantityCalculator, maxAlternatives int, log *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service:         svc,
		calculator:      calc,
		maxAlternatives: maxAlternatives,
		logger:          log,
	}
}

// Generate builds the approval recommendation for a submission.
// Query parameters: include_alternatives, max_alternatives, risk_tolerance.
func (h *RecommendationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	opts := service.RecommendOptions{
		IncludeAlternatives: r.URL.Query().Get("include_alternatives") == "true",
		MaxAlternatives:     h.maxAlternatives,
	}
	if raw := r.URL.Query().Get("max_alternatives"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.Error(w, errors.Validation(map[string]string{
				"max_alternatives": "must be a positive integer",
			}))
			return
		}
		opts.MaxAlternatives = n
	}
	if raw := r.URL.Query().Get("risk_tolerance"); raw != "" {
		switch domain.RiskLevel(raw) {
		case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
			opts.RiskTolerance = domain.RiskLevel(raw)
		default:
			httputil.Error(w, errors.Validation(map[string]string{
				"risk_tolerance": "must be one of: low, medium, high",
			}))
			return
		}
	}

	rec, err := h.service.Generate(r.Context(), submissionID, opts)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

type quantityRequest struct {
	AffectedArea    string   `json:"affected_area" validate:"required"`
	Category        string   `json:"category" validate:"required"`
	PestDescriptors []string `json:"pest_descriptors,omitempty"`
}

// CalculateQuantity runs the quantity calculation without a submission,
// for pre-submission planning.
func (h *RecommendationHandler) CalculateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	area, err := decimal.NewFromString(req.AffectedArea)
	if err != nil {
		httputil.Error(w, errors.Validation(map[string]string{
			"affected_area": "must be a decimal number",
		}))
		return
	}

	calc, err := h.calculator.Calculate(area, req.Category, req.PestDescriptors)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, calc)
}
