package billing

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the billing service.
var (
	ErrNotFound               = errors.New("customer not found")
	ErrManagerNotFound        = errors.New("manager not found")
	ErrPendingManagerNotFound = errors.New("pending manager not found")
	ErrNegativeBalance        = errors.New("balance cannot be negative")
	ErrPaymentExceedsBalance  = errors.New("payment amount cannot exceed current balance")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrDuplicateRecord        = errors.New("record already exists")
	ErrInvalidCustomerID      = errors.New("invalid customer id")
	ErrInvalidManagerID       = errors.New("invalid manager id")
	ErrInvalidPendingID       = errors.New("invalid pending manager id")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidPaymentMode     = errors.New("invalid payment mode")
	ErrInvalidPaymentStatus   = errors.New("invalid payment status")
	ErrInvalidCustomerInput   = errors.New("invalid customer input")
	ErrInvalidManagerInput    = errors.New("invalid manager input")
	ErrInvalidServiceConfig   = errors.New("invalid service config")
)

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
