package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in a call to the school backend.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a missing, invalid or expired token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists (e.g. duplicate class name).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrRateUnavailable indicates the exchange rate is missing or not positive,
// so any amount that depends on a conversion cannot be computed.
type ErrRateUnavailable struct {
	Rate float64
}

func (e *ErrRateUnavailable) Error() string {
	if e.Rate == 0 {
		return "exchange rate unavailable"
	}
	return fmt.Sprintf("exchange rate unavailable: invalid rate %g", e.Rate)
}

// ErrSuperseded indicates a student query was replaced by a newer one from
// the same session before its result could be applied.
type ErrSuperseded struct {
	Session string
}

func (e *ErrSuperseded) Error() string {
	return fmt.Sprintf("query superseded by a newer request (session %s)", e.Session)
}

// RejectionCode identifies why a payment submission was refused locally.
type RejectionCode string

const (
	RejectMissingStudent       RejectionCode = "missing_student"
	RejectInvalidAmount        RejectionCode = "invalid_amount"
	RejectAmountExceedsBalance RejectionCode = "amount_exceeds_balance"
	RejectMissingTerm          RejectionCode = "missing_term"
	RejectMissingFee           RejectionCode = "missing_fee"
)

// ErrPaymentRejected is returned when a payment form fails validation.
// Limit and Currency are only set for RejectAmountExceedsBalance.
type ErrPaymentRejected struct {
	Code     RejectionCode
	Limit    float64
	Currency Currency
}

func (e *ErrPaymentRejected) Error() string {
	switch e.Code {
	case RejectMissingStudent:
		return "payment rejected: a student must be selected"
	case RejectInvalidAmount:
		return "payment rejected: amount must be a positive number"
	case RejectAmountExceedsBalance:
		return fmt.Sprintf("payment rejected: amount exceeds the allowed limit (%g %s)", e.Limit, e.Currency)
	case RejectMissingTerm:
		return "payment rejected: a term must be selected"
	case RejectMissingFee:
		return "payment rejected: a known extra fee must be selected"
	}
	return fmt.Sprintf("payment rejected: %s", e.Code)
}
