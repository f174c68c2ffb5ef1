// Package apperror defines the error kinds business code reports and the HTTP
// status each kind maps to at the API boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindNotFound               Kind = "NOT_FOUND"
	KindMissingReference       Kind = "MISSING_REFERENCE"
	KindConflict               Kind = "CONFLICT"
	KindInsufficientStock      Kind = "INSUFFICIENT_STOCK"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindOverPayment            Kind = "OVER_PAYMENT"
	KindUnexpected             Kind = "UNEXPECTED"
)

// Sentinels for errors.Is matching on kind only.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrMissingReference       = &Error{Kind: KindMissingReference}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrInsufficientStock      = &Error{Kind: KindInsufficientStock}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrOverPayment            = &Error{Kind: KindOverPayment}
	ErrUnexpected             = &Error{Kind: KindUnexpected}
)

// Error is a classified business error.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input for validation errors.
	Field   string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target with a message only
// matches an identical message, so sentinels (no message) match the whole kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Validation reports bad caller input on field.
func Validation(field, message string) *Error {
	e := &Error{Kind: KindValidation, Message: message, Field: field}
	if field != "" {
		e.Message = field + ": " + message
		e.Details = map[string]interface{}{"field": field}
	}
	return e
}

// NotFound reports that entity id does not exist.
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]interface{}{"entity": entity, "id": id},
	}
}

// MissingReference reports that a record points at an entity that no longer resolves.
func MissingReference(entity, id string) *Error {
	return &Error{
		Kind:    KindMissingReference,
		Message: fmt.Sprintf("referenced %s could not be resolved", entity),
		Details: map[string]interface{}{"entity": entity, "id": id},
	}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// InsufficientStock reports a decrement larger than the quantity on hand.
func InsufficientStock(item string, available, requested int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s (available: %d, requested: %d)", item, available, requested),
		Details: map[string]interface{}{"item": item, "available": available, "requested": requested},
	}
}

// InvalidStateTransition reports an action on a record whose status forbids it.
func InvalidStateTransition(entity, status, action string) *Error {
	return &Error{
		Kind:    KindInvalidStateTransition,
		Message: fmt.Sprintf("cannot %s %s with status %q", action, entity, status),
		Details: map[string]interface{}{"status": status, "action": action},
	}
}

// OverPayment reports a payment that would push total paid above the invoice total.
func OverPayment(total, alreadyPaid, amount string) *Error {
	return &Error{
		Kind:    KindOverPayment,
		Message: fmt.Sprintf("payment of %s exceeds the outstanding balance (total: %s, paid: %s)", amount, total, alreadyPaid),
		Details: map[string]interface{}{"total": total, "total_paid": alreadyPaid, "amount": amount},
	}
}

// Unexpected wraps an infrastructure failure.
func Unexpected(message string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

// KindOf returns the kind of err, KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindOverPayment:
		return http.StatusBadRequest
	case KindNotFound, KindMissingReference:
		return http.StatusNotFound
	case KindConflict, KindInvalidStateTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
