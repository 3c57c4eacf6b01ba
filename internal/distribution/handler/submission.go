package handler

import (
	"net/http"

	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	"github.com/agrimed/agrimed-backend/pkg/httputil"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// SubmissionHandler handles submission read endpoints
type SubmissionHandler struct {
	store  service.SubmissionStore
	logger *logger.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(store service.SubmissionStore, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		store:  store,
		logger: log,
	}
}

// Get gets a submission with its items
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := h.store.GetSubmissionWithItems(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sub)
}
