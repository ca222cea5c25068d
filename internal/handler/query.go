package handler

import (
	"net/http"

	"github.com/civic-ai/civic-backend/internal/middleware"
	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/service"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

// QueryHandler handles POST /api/query.
type QueryHandler struct {
	service *service.QueryService
	logger  *logger.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(svc *service.QueryService, log *logger.Logger) *QueryHandler {
	return &QueryHandler{
		service: svc,
		logger:  log,
	}
}

// Ask handles POST /api/query
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req model.QueryRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := middleware.ValidateQuestion(req.Question); err != nil {
		writeError(w, r, h.logger, apperrors.BadRequest(err.Error()))
		return
	}
	if err := middleware.ValidateLanguage(req.Language); err != nil {
		writeError(w, r, h.logger, apperrors.BadRequest(err.Error()))
		return
	}

	resp, err := h.service.Ask(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
