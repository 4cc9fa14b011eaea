package domain

import "errors"

// Domain errors surfaced by the engine and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrTaskNotFound indicates the specified task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrOccurrenceNotFound indicates the specified occurrence does not exist.
	ErrOccurrenceNotFound = errors.New("occurrence not found")

	// ErrEventNotFound indicates the specified calendar event does not exist.
	ErrEventNotFound = errors.New("calendar event not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrNameRequired indicates a task was created without a name.
	ErrNameRequired = errors.New("task name is required")

	// ErrNameTooLong indicates a task name exceeds 255 characters.
	ErrNameTooLong = errors.New("task name must be 255 characters or less")

	// ErrInvalidImportance indicates an importance value outside 1-10.
	ErrInvalidImportance = errors.New("importance must be between 1 and 10")

	// ErrInvalidOccurrenceStatus indicates an unknown occurrence status.
	ErrInvalidOccurrenceStatus = errors.New("invalid occurrence status")

	// ErrInvalidWeekday indicates an unknown weekday tag.
	ErrInvalidWeekday = errors.New("invalid weekday")

	// ErrInvalidDayOfMonth indicates a day-of-month value outside 1-31.
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")

	// ErrInvalidClockTime indicates a time-of-day string not in HH:MM form.
	ErrInvalidClockTime = errors.New("time of day must be in HH:MM format")

	// ErrInvalidInterval indicates a non-positive recurrence interval.
	ErrInvalidInterval = errors.New("recurrence interval must be positive")

	// ErrInvalidMaxOccurrences indicates a non-positive per-period cap.
	ErrInvalidMaxOccurrences = errors.New("max occurrences per period must be positive")

	// ErrConflictingRecurrenceDays indicates both daysOfWeek and daysOfMonth set.
	ErrConflictingRecurrenceDays = errors.New("recurrence cannot combine days of week with days of month")

	// ErrFixedTaskMissingTimes indicates a fixed task without start/end times.
	ErrFixedTaskMissingTimes = errors.New("fixed task requires start and end times")

	// ErrFixedRecurrenceRequiresEnd indicates an open-ended fixed recurrence.
	ErrFixedRecurrenceRequiresEnd = errors.New("fixed recurring task requires an end date")

	// ErrFixedRecurrenceRequiresDays indicates a fixed recurrence without an
	// explicit weekday or day-of-month selection.
	ErrFixedRecurrenceRequiresDays = errors.New("fixed recurring task requires explicit days of week or days of month")

	// ErrTargetAfterLimit indicates a target date later than the limit date.
	ErrTargetAfterLimit = errors.New("target date must not be after limit date")

	// ErrRecurrenceRequired indicates chained occurrence creation was requested
	// for a task with no recurrence configured. This is a programming error on
	// the caller's side, never silently ignored.
	ErrRecurrenceRequired = errors.New("task has no recurrence configured")

	// ErrOccurrenceAlreadyResolved indicates a resolve call on a terminal occurrence.
	ErrOccurrenceAlreadyResolved = errors.New("occurrence is already resolved")

	// ErrInvalidOutcome indicates a resolve outcome other than COMPLETED or SKIPPED.
	ErrInvalidOutcome = errors.New("resolve outcome must be COMPLETED or SKIPPED")
)
