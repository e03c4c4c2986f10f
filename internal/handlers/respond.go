package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"swiftly/internal/contextutil"
	"swiftly/internal/llm"
	"swiftly/internal/service"
	"swiftly/internal/storage"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// handleServiceError maps service-layer errors onto HTTP responses.
// Provider failures deliberately surface as a generic message; the specific
// cause stays in the logs.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "validation failed", "field", validationErr.Field, "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, storage.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, storage.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, storage.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, llm.ErrEmbeddingUnavailable),
		errors.Is(err, llm.ErrGenerationUnavailable),
		errors.Is(err, llm.ErrTranscriptionUnavailable):
		logger.ErrorContext(ctx, "provider failure", "error", err)
		writeError(w, http.StatusBadGateway, "could not complete request")
	default:
		logger.ErrorContext(ctx, fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
