package provider

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
)

// ErrorResponse is the uniform error body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON encodes data as the response body with the given status.
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Already wrote headers, can only log
		return
	}
}

// WriteErrorMessage writes an error body with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// WriteError translates a taxonomy error into its fixed HTTP status and a
// human-readable message. This is the single place where error kinds meet
// status codes.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorMessage(w, err.Error(), StatusForError(err))
}

// StatusForError maps each error kind of the taxonomy to a fixed status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, identity.ErrVerificationRequired):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, identity.ErrMisconfigured):
		return http.StatusInternalServerError
	case errors.Is(err, identity.ErrPrefixConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
