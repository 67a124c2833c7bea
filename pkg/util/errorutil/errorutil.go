package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to callers. None of them are retryable.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeActiveWorkExists     = "ACTIVE_WORK_EXISTS"
	CodeWorkNotFound         = "WORK_NOT_FOUND"
	CodeInvalidTimeEntry     = "INVALID_TIME_ENTRY"
	CodeInvalidStatus        = "INVALID_STATUS"
	CodeAlreadyClosed        = "ALREADY_CLOSED"
	CodeActiveSessionsRemain = "ACTIVE_SESSIONS_REMAIN"
	CodeAssignmentNotFound   = "ASSIGNMENT_NOT_FOUND"
	CodeAlreadyScheduled     = "ALREADY_SCHEDULED"
	CodeWorkerUnavailable    = "WORKER_UNAVAILABLE"
	CodeCategoryAccessDenied = "CATEGORY_ACCESS_DENIED"
	CodeDateInPast           = "DATE_IN_PAST"
	CodeAutoAssignInProgress = "AUTO_ASSIGN_IN_PROGRESS"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so errors.Is(err, ErrWorkNotFound) works
// regardless of message and details.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrActiveWorkExists     = &DomainError{Code: CodeActiveWorkExists}
	ErrWorkNotFound         = &DomainError{Code: CodeWorkNotFound}
	ErrInvalidTimeEntry     = &DomainError{Code: CodeInvalidTimeEntry}
	ErrInvalidStatus        = &DomainError{Code: CodeInvalidStatus}
	ErrAlreadyClosed        = &DomainError{Code: CodeAlreadyClosed}
	ErrActiveSessionsRemain = &DomainError{Code: CodeActiveSessionsRemain}
	ErrAssignmentNotFound   = &DomainError{Code: CodeAssignmentNotFound}
	ErrAlreadyScheduled     = &DomainError{Code: CodeAlreadyScheduled}
	ErrWorkerUnavailable    = &DomainError{Code: CodeWorkerUnavailable}
	ErrCategoryAccessDenied = &DomainError{Code: CodeCategoryAccessDenied}
	ErrDateInPast           = &DomainError{Code: CodeDateInPast}
	ErrInvalidArgument      = &DomainError{Code: CodeInvalidArgument}
	ErrNotFound             = &DomainError{Code: CodeNotFound}
	ErrForbidden            = &DomainError{Code: CodeForbidden}
	ErrAutoAssignInProgress = &DomainError{Code: CodeAutoAssignInProgress}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewInvalidArgument(field string) error {
	return NewDomainError(CodeInvalidArgument, fmt.Sprintf("%s is required", field), http.StatusBadRequest, map[string]any{"field": field})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewActiveWorkExists(ticketID, workerID string) error {
	return NewDomainError(CodeActiveWorkExists, "work already in progress for this ticket", http.StatusConflict,
		map[string]any{"ticket_id": ticketID, "worker_id": workerID})
}

func NewWorkNotFound(ticketID, workerID string) error {
	return NewDomainError(CodeWorkNotFound, "no active work session", http.StatusNotFound,
		map[string]any{"ticket_id": ticketID, "worker_id": workerID})
}

func NewInvalidTimeEntry(minutes int) error {
	return NewDomainError(CodeInvalidTimeEntry, "time entry must be a positive number of minutes", http.StatusBadRequest,
		map[string]any{"minutes": minutes})
}

func NewInvalidStatus(status, reason string) error {
	return NewDomainError(CodeInvalidStatus, reason, http.StatusBadRequest, map[string]any{"status": status})
}

func NewAlreadyClosed(ticketID string) error {
	return NewDomainError(CodeAlreadyClosed, "ticket already closed", http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

func NewActiveSessionsRemain(ticketID string, workerIDs []string) error {
	return NewDomainError(CodeActiveSessionsRemain, "ticket still has active work sessions", http.StatusConflict,
		map[string]any{"ticket_id": ticketID, "worker_ids": workerIDs})
}

func NewAssignmentNotFound(details map[string]any) error {
	return NewDomainError(CodeAssignmentNotFound, "schedule assignment not found", http.StatusNotFound, details)
}

func NewAlreadyScheduled(details map[string]any) error {
	return NewDomainError(CodeAlreadyScheduled, "ticket already scheduled for this worker on this date", http.StatusConflict, details)
}

func NewWorkerUnavailable(details map[string]any) error {
	return NewDomainError(CodeWorkerUnavailable, "worker has no availability on this date", http.StatusConflict, details)
}

func NewCategoryAccessDenied(details map[string]any) error {
	return NewDomainError(CodeCategoryAccessDenied, "worker has no access to the ticket category", http.StatusForbidden, details)
}

func NewDateInPast(date string) error {
	return NewDomainError(CodeDateInPast, "cannot schedule on a past date", http.StatusBadRequest,
		map[string]any{"date": date})
}

func NewAutoAssignInProgress(workerID string) error {
	return NewDomainError(CodeAutoAssignInProgress, "auto-assignment already running for this worker", http.StatusConflict,
		map[string]any{"worker_id": workerID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts err for returning across the service boundary.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
