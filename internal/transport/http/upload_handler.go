// Package http wires the chi router and the HTTP handlers for uploads,
// analytics and KPIs.
package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bizpulse/internal/errors"
	"bizpulse/internal/ingest"
)

// IngestService is the upload pipeline surface the handler needs.
type IngestService interface {
	Ingest(ctx context.Context, content []byte, filename string) (*ingest.Result, error)
	Analyze(content []byte, filename string) (*ingest.Profile, error)
	Clear(ctx context.Context) error
}

// UploadHandler serves the upload endpoints.
type UploadHandler struct {
	service     IngestService
	maxUploadMB int
	logger      *slog.Logger
}

// NewUploadHandler creates an upload handler.
func NewUploadHandler(service IngestService, maxUploadMB int, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &UploadHandler{
		service:     service,
		maxUploadMB: maxUploadMB,
		logger:      logger.With(slog.String("component", "upload_handler")),
	}
}

// Routes returns the upload routes.
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/csv", h.Upload)
	r.Post("/analyze", h.Analyze)
	r.Delete("/clear", h.Clear)

	return r
}

// Upload handles POST /api/upload/csv: parse, clean and persist one file.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	content, filename, apiErr := h.readUpload(w, r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	result, err := h.service.Ingest(r.Context(), content, filename)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload failed", "filename", filename, "error", err)
		apierrors.WriteError(w, uploadAPIError(err))
		return
	}

	render.Respond(w, r, result)
}

// Analyze handles POST /api/upload/analyze: profile a file without
// persisting it.
func (h *UploadHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	content, filename, apiErr := h.readUpload(w, r)
	if apiErr != nil {
		apierrors.WriteError(w, apiErr)
		return
	}

	profile, err := h.service.Analyze(content, filename)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "analyze failed", "filename", filename, "error", err)
		apierrors.WriteError(w, uploadAPIError(err))
		return
	}

	render.Respond(w, r, profile)
}

// Clear handles DELETE /api/upload/clear: drop all persisted data.
func (h *UploadHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "clear failed", "error", err)
		apierrors.WriteError(w, apierrors.ErrInternalServer)
		return
	}
	render.Respond(w, r, map[string]string{"message": "All data cleared"})
}

// readUpload extracts the multipart file, enforcing the size limit.
func (h *UploadHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, *apierrors.APIError) {
	maxBytes := int64(h.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return nil, "", apierrors.ErrPayloadTooLarge
		}
		return nil, "", apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", apierrors.ErrValidation("file", "A file upload is required")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apierrors.InvalidRequestWithError(err)
	}

	return content, header.Filename, nil
}

// uploadAPIError maps a pipeline failure to its API error.
func uploadAPIError(err error) *apierrors.APIError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to decode"):
		return apierrors.DecodeError(ingest.Encodings())
	case strings.Contains(msg, "unsupported file extension"):
		return apierrors.ErrUnsupportedFile
	case strings.Contains(msg, "no data"):
		return apierrors.NewWithDetails(http.StatusBadRequest, "EMPTY_FILE", "File contains no data", nil)
	default:
		return apierrors.UploadError(err)
	}
}
