// Package api provides HTTP handlers for the portfolio API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmahrt/portfolio/internal/domain"
)

// maxRequestBodySize caps JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Message writes a {"message": ...} response.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// validationResponse is the 400 body for invalid form input.
type validationResponse struct {
	Message string              `json:"message"`
	Details []domain.FieldError `json:"details"`
}

// Invalid writes a 400 with per-field details.
func Invalid(w http.ResponseWriter, message string, details []domain.FieldError) {
	JSON(w, http.StatusBadRequest, validationResponse{Message: message, Details: details})
}

// decodeJSON reads a size-limited JSON body into v. It reports whether the
// body was too large.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) (tooLarge bool, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		return errors.As(err, &maxErr), err
	}
	return false, nil
}
