package checkout

import (
	"errors"
	"fmt"

	"storefront/internal/checkout/domain"
)

// Common errors
var (
	ErrSessionNotFound      = errors.New("checkout session not found")
	ErrInvalidStep          = errors.New("invalid step")
	ErrNotOnFinalStep       = errors.New("orders can only be placed from the payment step")
	ErrValidation           = errors.New("validation failed")
	ErrSubmissionInProgress = errors.New("order submission already in progress")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCouponUnavailable    = errors.New("coupons can only be applied on the payment step")
)

// DefaultSubmitMessage is shown when the order service gives no reason.
const DefaultSubmitMessage = "Failed to place order"

// ValidationError lists the fields that blocked a transition.
type ValidationError struct {
	Step   domain.Step
	Fields []domain.Field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s step: %d invalid fields", e.Step, len(e.Fields))
}

// Unwrap lets callers match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// OrderRejectedError carries a message from the order service meant for
// the customer.
type OrderRejectedError struct {
	Message string
}

func (e *OrderRejectedError) Error() string {
	return e.Message
}

// SubmitError is returned when the order service fails. Message is safe to
// show to the customer.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func newSubmitError(err error) *SubmitError {
	msg := DefaultSubmitMessage
	var rejected *OrderRejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		msg = rejected.Message
	}
	return &SubmitError{Message: msg, Err: err}
}
