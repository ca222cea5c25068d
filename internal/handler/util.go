package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/middleware"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

// maxJSONBody limits JSON request bodies.
const maxJSONBody = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the body of every error response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError writes err as a JSON error response. Internal errors are logged
// and their cause is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeInternal {
		log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("user_id", middleware.GetUserID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{
		Error: apperrors.PublicMessage(err),
		Code:  string(code),
	})
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.BadRequest("request body too large")
	}
	return apperrors.BadRequest("invalid request body")
}
