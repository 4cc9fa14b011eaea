package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorField{
				{Field: field, Issue: issue},
			},
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// InternalError sends a 500 Internal Server Error. The actual error is
// logged server-side; the client only sees a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Validation errors (400)
	case errors.Is(err, domain.ErrNameRequired):
		ValidationError(w, "name", "required field missing")
	case errors.Is(err, domain.ErrNameTooLong):
		ValidationError(w, "name", "must be 255 characters or less")
	case errors.Is(err, domain.ErrInvalidImportance):
		ValidationError(w, "importance", "must be between 1 and 10")
	case errors.Is(err, domain.ErrInvalidID):
		ValidationError(w, "id", "invalid ID format")
	case errors.Is(err, domain.ErrInvalidOccurrenceStatus):
		ValidationError(w, "status", "invalid occurrence status")
	case errors.Is(err, domain.ErrInvalidOutcome):
		ValidationError(w, "outcome", "must be COMPLETED or SKIPPED")
	case errors.Is(err, domain.ErrInvalidWeekday):
		ValidationError(w, "days_of_week", "invalid weekday")
	case errors.Is(err, domain.ErrInvalidDayOfMonth):
		ValidationError(w, "days_of_month", "must be between 1 and 31")
	case errors.Is(err, domain.ErrInvalidClockTime):
		ValidationError(w, "fixed_start_time", "must be in HH:MM format")
	case errors.Is(err, domain.ErrInvalidInterval):
		ValidationError(w, "interval", "must be positive")
	case errors.Is(err, domain.ErrInvalidMaxOccurrences):
		ValidationError(w, "max_occurrences", "must be positive")
	case errors.Is(err, domain.ErrConflictingRecurrenceDays):
		ValidationError(w, "days_of_month", "cannot be combined with days_of_week")
	case errors.Is(err, domain.ErrFixedTaskMissingTimes):
		ValidationError(w, "fixed_start_time", "required for fixed tasks")
	case errors.Is(err, domain.ErrFixedRecurrenceRequiresEnd):
		ValidationError(w, "end_date", "required for fixed recurring tasks")
	case errors.Is(err, domain.ErrFixedRecurrenceRequiresDays):
		ValidationError(w, "days_of_week", "fixed recurring tasks require explicit days")
	case errors.Is(err, domain.ErrTargetAfterLimit):
		ValidationError(w, "target_date", "must not be after limit_date")
	case errors.Is(err, domain.ErrRecurrenceRequired):
		BadRequest(w, "task has no recurrence configured")

	// Not found errors (404)
	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrOccurrenceNotFound):
		NotFound(w, "occurrence")
	case errors.Is(err, domain.ErrEventNotFound):
		NotFound(w, "calendar event")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// Conflicts (409)
	case errors.Is(err, domain.ErrOccurrenceAlreadyResolved):
		Conflict(w, err.Error())

	// Unknown errors (500)
	default:
		InternalError(w, r, err)
	}
}
