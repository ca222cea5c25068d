package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/civic-ai/civic-backend/internal/middleware"
	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/service"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

const (
	// multipartOverhead is allowed on top of the file size for the other
	// form fields and part headers.
	multipartOverhead = 1 << 20
	// multipartMemory is kept in memory before parts spill to disk.
	multipartMemory = 8 << 20
)

// OCRHandler handles POST /api/ocr.
type OCRHandler struct {
	service  *service.ImageService
	maxBytes int64
	logger   *logger.Logger
}

// NewOCRHandler creates a new OCR handler.
func NewOCRHandler(svc *service.ImageService, maxBytes int64, log *logger.Logger) *OCRHandler {
	return &OCRHandler{
		service:  svc,
		maxBytes: maxBytes,
		logger:   log,
	}
}

// Upload handles POST /api/ocr
func (h *OCRHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, apperrors.ErrUploadTooLarge)
			return
		}
		writeError(w, r, h.logger, apperrors.BadRequest("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, h.logger, apperrors.BadRequest("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, r, h.logger, apperrors.BadRequest("failed to read uploaded file"))
		return
	}

	language := r.FormValue("language")
	if err := middleware.ValidateLanguage(language); err != nil {
		writeError(w, r, h.logger, apperrors.BadRequest(err.Error()))
		return
	}
	var chatID *string
	if v := r.FormValue("chat_id"); v != "" {
		chatID = &v
	}

	upload := &model.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	resp, err := h.service.Analyze(r.Context(), middleware.GetUserID(r.Context()), upload, language, chatID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
