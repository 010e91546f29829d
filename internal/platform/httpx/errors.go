// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/salesadmin/internal/backend"
)

// Sentinel errors for handler code.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("bad request")
)

// RespondError maps errors to HTTP responses using RFC7807. Backend answers
// keep their status and message so operators see what the server said.
func RespondError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		Problem(w, status, http.StatusText(status), backend.MessageOr(err, ""))
	case errors.Is(err, backend.ErrUnavailable):
		Problem(w, http.StatusBadGateway, "Backend Unavailable", "")
	case errors.Is(err, ErrNotFound), errors.Is(err, backend.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
