// Package rest shapes JSON responses and maps domain errors to HTTP status
// codes.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/minhlq/charterdesk/internal/domain"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
	}

	if response.Success {
		response.Data = data
	} else {
		if apiErr, ok := data.(*APIError); ok {
			response.Error = apiErr
		}
	}

	_ = json.NewEncoder(w).Encode(response)
}

// RespondWithError maps a domain error onto the HTTP taxonomy:
// validation and invalid state are 400, not found 404, conflicts 409,
// authorization 403, everything else 500.
func RespondWithError(w http.ResponseWriter, err error) {
	code := domain.ErrCodeInternal
	message := "an internal error occurred"
	status := http.StatusInternalServerError

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message

		switch domainErr.Code {
		case domain.ErrCodeValidation, domain.ErrCodeInvalidState, domain.ErrCodeAmountMismatch:
			status = http.StatusBadRequest
		case domain.ErrCodeNotFound:
			status = http.StatusNotFound
		case domain.ErrCodeConflict, domain.ErrCodeAlreadyFinalized:
			status = http.StatusConflict
		case domain.ErrCodeAuthorization:
			status = http.StatusForbidden
		default:
			status = http.StatusInternalServerError
			message = "an internal error occurred"
		}
	}

	RespondWithJSON(w, status, &APIError{
		Code:    code,
		Message: message,
	})
}
