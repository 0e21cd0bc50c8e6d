package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/review-forge/internal/attachments"
	"github.com/sevigo/review-forge/internal/core"
)

// AttachmentService is the attachment store as seen by the handlers.
type AttachmentService interface {
	AddFiles(id core.ReviewID, uploads []attachments.Upload) ([]attachments.Result, error)
	ListFiles(id core.ReviewID) ([]string, error)
	DeleteFile(id core.ReviewID, filename string) error
}

// AttachmentHandler serves the per-review file endpoints.
type AttachmentHandler struct {
	files          AttachmentService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewAttachmentHandler(files AttachmentService, maxUploadBytes int64, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{files: files, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload handles POST /reviews/{id}/files with multipart field "files".
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid multipart upload: %v", core.ErrInvalidRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: no files in field \"files\"", core.ErrInvalidRequest))
		return
	}

	uploads := make([]attachments.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err))
			return
		}
		uploads = append(uploads, attachments.Upload{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	results, err := h.files.AddFiles(id, uploads)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	for _, res := range results {
		if res.Accepted {
			status = http.StatusCreated
			break
		}
	}
	writeJSON(w, h.logger, status, map[string]any{"id": id, "files": results})
}

// List handles GET /reviews/{id}/files.
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	names, err := h.files.ListFiles(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"id": id, "files": names})
}

// Delete handles DELETE /reviews/{id}/files/{filename}.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	filename := chi.URLParam(r, "filename")
	if err := h.files.DeleteFile(id, filename); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"id": id, "file": filename, "deleted": true})
}
