package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/splitshare/internal/auth"
	"github.com/mmynk/splitshare/internal/service"
)

// errorBody is the JSON error envelope. Field is set for validation errors.
type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP statuses:
// validation → 400, missing/invalid credentials → 401, forbidden → 403,
// not found → 404, membership/invite conflicts → 400, anything else → 500.
func writeError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: vErr.Error(), Field: vErr.Field})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyInvited),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailExists):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	default:
		// Persistence and other unexpected failures: log, surface generically,
		// never retried automatically.
		slog.Error("Internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &service.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}
