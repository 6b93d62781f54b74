package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/chatdemo-server/internal/model"
)

// statusFor maps domain errors to HTTP statuses. The message of a 5xx is
// never shown to clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrCaptchaMismatch):
		return http.StatusUnprocessableEntity, model.ErrCaptchaMismatch.Error()
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, model.ErrInvalidCredentials.Error()
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeJSON(w, status, errorResponse{Error: msg})
}
