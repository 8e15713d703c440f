package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError for callers that branch on failure type.
type Kind string

const (
	KindValidation              Kind = "validation_error"
	KindPlacementConflict       Kind = "placement_conflict"
	KindInvalidTransition       Kind = "invalid_transition"
	KindExternalLinkageMissing  Kind = "external_linkage_missing"
	KindReconciliationAmbiguous Kind = "reconciliation_ambiguous"
	KindTransientIO             Kind = "transient_io"
	KindStaleState              Kind = "stale_state"
	KindNotFound                Kind = "not_found"
	KindForbidden               Kind = "forbidden"
	KindInternal                Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code, a machine-readable
// kind and a small diagnostic payload.
type AppError struct {
	Code    int            // HTTP Status Code (e.g., 400, 404)
	Kind    Kind           // Error taxonomy bucket
	Message string         // Short error message
	Details map[string]any // Diagnostic ids (conflicting booking, current state, ...)
	Err     error          // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by kind and message so sentinel errors keep working
// after WithDetails copies them.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// WithDetails returns a copy of e carrying the given diagnostic payload.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
		Err:     err,
	}
}

// Validation reports malformed input. Nothing was applied.
func Validation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

// PlacementConflict reports that a write would break the non-overlap invariant.
// conflictKind is one of "closure", "block" or "booking".
func PlacementConflict(conflictKind, conflictID string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindPlacementConflict,
		Message: "placement conflict",
		Details: map[string]any{"conflict_kind": conflictKind, "conflict_id": conflictID},
	}
}

// InvalidTransition reports a state machine guard failure.
func InvalidTransition(current, action string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInvalidTransition,
		Message: "invalid transition",
		Details: map[string]any{"current_state": current, "action": action},
	}
}

// ExternalLinkageMissing blocks a confirmation without an external booking id.
func ExternalLinkageMissing(bookingID string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindExternalLinkageMissing,
		Message: "external booking id required",
		Details: map[string]any{"booking_id": bookingID},
	}
}

// ReconciliationAmbiguous is an advisory: the operator must acknowledge it and resubmit.
func ReconciliationAmbiguous(existingIDs []string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindReconciliationAmbiguous,
		Message: "member already holds a booking for this resource type and date",
		Details: map[string]any{"existing_booking_ids": existingIDs, "acknowledge_required": true},
	}
}

// TransientIO reports an unreachable collaborator.
func TransientIO(collaborator string, err error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindTransientIO,
		Message: collaborator + " unavailable",
		Details: map[string]any{"collaborator": collaborator},
		Err:     err,
	}
}

// StaleState reports that the caller computed its request against an older version.
func StaleState(currentState string, currentVersion int) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindStaleState,
		Message: "booking was modified concurrently",
		Details: map[string]any{"current_state": currentState, "current_version": currentVersion},
	}
}

// KindOf returns the kind of err, or KindInternal for non-AppErrors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return KindForbidden
	case http.StatusConflict:
		return KindPlacementConflict
	case http.StatusServiceUnavailable:
		return KindTransientIO
	default:
		return KindInternal
	}
}
