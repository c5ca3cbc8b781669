// Package handlers implements the HTTP API surface.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leonardobora/GeraAI/internal/logging"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/services"
)

// writeJSON serializes data as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response without a machine-readable code.
// For simple client errors (400-level), use: writeError(w, status, msg)
// For server errors with cause, use: writeErrorWithCause(ctx, w, status, msg, err)
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// writeErrorCode writes an error response carrying a failure code.
func writeErrorCode(w http.ResponseWriter, status int, message string, code services.Code) {
	writeJSON(w, status, models.ErrorResponse{Error: message, Code: string(code)})
}

// writeErrorWithCause writes an error response and logs the error with stack trace.
// Use this for server errors (500-level) where you have an underlying error to log.
func writeErrorWithCause(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	writeError(w, status, message)

	// Don't log 401/403 - handled by security event logging
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return
	}

	if status >= 400 && err != nil {
		wrappedErr := logging.WrapError(err, message)
		logging.LogErrorWithStatus(ctx, status, "error response", wrappedErr)
	}
}

// writePipelineError maps a pipeline failure onto its HTTP status and code.
func writePipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	var pe *services.PipelineError
	if !errors.As(err, &pe) {
		writeErrorWithCause(ctx, w, http.StatusInternalServerError, "internal error", err)
		return
	}

	status := pe.Code.HTTPStatus()
	writeErrorCode(w, status, pe.Message, pe.Code)

	if status >= 500 || pe.Code == services.CodeInternalError {
		wrappedErr := logging.WrapError(err, pe.Message)
		logging.LogErrorWithStatus(ctx, status, "pipeline failure", wrappedErr)
	}
}
