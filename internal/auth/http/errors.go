package http

import (
	"errors"
	"net/http"

	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/pkg/httpx"
	"github.com/forrrest/auth/pkg/slogx"
)

// ErrorResponse is the envelope every failed request gets.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable error codes. Clients branch on these, not on messages.
var (
	errInternal           = apiError{http.StatusInternalServerError, "C001", "internal server error"}
	errInvalidInput       = apiError{http.StatusBadRequest, "C002", "invalid request"}
	errEmailDuplication   = apiError{http.StatusConflict, "U001", "email already registered"}
	errUserNotFound       = apiError{http.StatusNotFound, "U002", "user not found"}
	errInvalidPassword    = apiError{http.StatusUnauthorized, "U003", "invalid password"}
	errInvalidToken       = apiError{http.StatusUnauthorized, "A002", "invalid token"}
	errExpiredToken       = apiError{http.StatusUnauthorized, "A003", "expired token"}
	errProfileNotFound    = apiError{http.StatusNotFound, "P001", "profile not found"}
	errProfileDuplication = apiError{http.StatusConflict, "P002", "profile name already in use"}
	errDefaultProfile     = apiError{http.StatusBadRequest, "P003", "default profile cannot be deleted"}
)

type apiError struct {
	status  int
	code    string
	message string
}

func (e apiError) Write(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.status, ErrorResponse{Code: e.code, Message: e.message})
}

// writeServiceError maps service sentinels onto the wire. Anything
// unmapped is a server fault and gets logged before the generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		errInvalidInput.Write(w)
	case errors.Is(err, service.ErrEmailDuplication):
		errEmailDuplication.Write(w)
	case errors.Is(err, service.ErrUserNotFound):
		errUserNotFound.Write(w)
	case errors.Is(err, service.ErrInvalidPassword):
		errInvalidPassword.Write(w)
	case errors.Is(err, service.ErrInvalidToken):
		errInvalidToken.Write(w)
	case errors.Is(err, service.ErrExpiredToken):
		errExpiredToken.Write(w)
	case errors.Is(err, service.ErrProfileNotFound):
		errProfileNotFound.Write(w)
	case errors.Is(err, service.ErrProfileDuplication):
		errProfileDuplication.Write(w)
	case errors.Is(err, service.ErrDefaultProfile):
		errDefaultProfile.Write(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		errInternal.Write(w)
	}
}
