// Package handler provides the HTTP handlers of the review API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/jobs"
)

type errorResponse struct {
	Error     string     `json:"error"`
	Stage     core.Stage `json:"stage,omitempty"`
	Retryable bool       `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var stageErr *core.StageError
	switch {
	case errors.Is(err, core.ErrInvalidIdentifier),
		errors.Is(err, core.ErrInvalidPath),
		errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobs.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrTransientExternal):
		return http.StatusBadGateway
	case errors.As(err, &stageErr), errors.Is(err, core.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var stageErr *core.StageError
	if errors.As(err, &stageErr) {
		resp.Stage = stageErr.Stage
		resp.Retryable = stageErr.Retryable()
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, logger, status, resp)
}
