package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"liveparticipation/internal/delivery/http/helpers"
	"liveparticipation/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// pathUUID reads a path value and validates it as a UUID. Writes a 400 and
// returns false on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if !uuidRegex.MatchString(id) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// respondServiceError maps the engine's expected error kinds to API error
// codes. Expected conditions drive UI behavior and are not logged; anything
// else is an internal error.
func respondServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrDeadlineExpired):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeDeadlineExpired, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeCapacityExceeded, err.Error())
	case errors.Is(err, domain.ErrDuplicateWaitlistEntry):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeDuplicateEntry, err.Error())
	case errors.Is(err, domain.ErrCheckInDisabled):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeCheckInDisabled, err.Error())
	case errors.Is(err, domain.ErrWindowNotOpen):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeWindowNotOpen, err.Error())
	case errors.Is(err, domain.ErrWindowClosed):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeWindowClosed, err.Error())
	case errors.Is(err, domain.ErrNotConfirmed):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotConfirmed, err.Error())
	case errors.Is(err, domain.ErrPollInactive):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodePollInactive, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
