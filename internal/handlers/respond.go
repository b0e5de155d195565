package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"braindump/internal/contextutil"
	"braindump/internal/indexer"
	"braindump/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation error", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Message))
		return
	}

	if errors.Is(err, service.ErrInvalidInput) {
		logger.WarnContext(ctx, "invalid input", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) || errors.Is(err, indexer.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}

	if errors.Is(err, service.ErrExternalService) {
		logger.ErrorContext(ctx, "external service error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	// Default to internal server error
	logger.ErrorContext(ctx, "service error", "error", err)
	writeError(w, http.StatusInternalServerError, defaultMsg)
}

// queryBool reads a boolean query parameter. Missing means def.
func queryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &service.ValidationError{Field: key, Message: "must be true or false"}
	}
	return v, nil
}

// queryInt reads a positive integer query parameter. Missing means def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, &service.ValidationError{Field: key, Message: "must be a positive integer"}
	}
	return v, nil
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return &service.ValidationError{Field: "body", Message: "request body is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &service.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}
