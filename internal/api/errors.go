package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/petaltask/recur/internal/domain"
	"github.com/petaltask/recur/internal/store"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// mapErrorToStatusCode translates engine errors into HTTP status codes.
// Validation problems are the caller's fault; missing resources map to 404;
// everything else is a server error with a generic message.
func mapErrorToStatusCode(err error) int {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDefinitionNotFound),
		errors.Is(err, store.ErrInstanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateOccurrence):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes the appropriate error response for err,
// hiding internal details behind a generic message for server errors.
func respondWithServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := mapErrorToStatusCode(err)

	resp := ErrorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
		resp.Error = "internal server error"
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		resp.Field = validationErr.Field
		resp.Error = validationErr.Message
	}

	respondJSON(w, status, resp)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
