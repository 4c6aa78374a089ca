package rentbook

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the mutation service and the
// action decoder.
var (
	ErrApartmentNotFound    = errors.New("apartment not found")
	ErrSubUnitNotFound      = errors.New("sub-unit not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrEntryNotFound        = errors.New("ledger entry not found")
	ErrInvalidAction        = errors.New("invalid action")
	ErrInvalidPayload       = errors.New("invalid payload")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidEntryType     = errors.New("invalid entry type")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// IsNotFound reports whether err names a missing record in one of the
// three collections.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrApartmentNotFound) ||
		errors.Is(err, ErrSubUnitNotFound) ||
		errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}

// IsInvalid reports whether err names a malformed or unrecognized request.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidEntryType)
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
