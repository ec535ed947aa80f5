package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/royals-sales/royals/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Unknown errors are
// logged server-side and surface as a generic 500; validation errors keep
// their collected field messages.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErr *shared.ValidationError
	switch {
	case errors.As(err, &vErr):
		ValidationFailed(w, vErr.Messages)
	case errors.Is(err, shared.ErrInvalidCredentials):
		Message(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, shared.ErrUnauthorized):
		Message(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, shared.ErrForbidden):
		if detail, ok := strings.CutPrefix(err.Error(), shared.ErrForbidden.Error()+": "); ok {
			Message(w, http.StatusForbidden, detail)
			return
		}
		Message(w, http.StatusForbidden, "Access denied. Admin only.")
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, "Not found")
	case errors.Is(err, shared.ErrConflict):
		Message(w, http.StatusConflict, strings.TrimPrefix(err.Error(), shared.ErrConflict.Error()+": "))
	default:
		if logger != nil {
			logger.Error("request failed", slog.Any("error", err))
		}
		Message(w, http.StatusInternalServerError, "Server error")
	}
}
