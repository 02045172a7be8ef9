package billing

import (
	"errors"
	"testing"
)

const (
	operationName    = "billing"
	subjectName      = "customer"
	codeName         = "invalid"
	baseErrorMessage = "base error"
)

func TestOperationErrorFormatting(test *testing.T) {
	test.Parallel()
	baseError := errors.New(baseErrorMessage)
	wrappedError := WrapError(operationName, subjectName, codeName, baseError)
	if wrappedError == nil {
		test.Fatalf("expected wrapped error")
	}
	expected := operationName + "." + subjectName + "." + codeName + ": " + baseErrorMessage
	if wrappedError.Error() != expected {
		test.Fatalf("expected %q, got %q", expected, wrappedError.Error())
	}
}

func TestWrapErrorNil(test *testing.T) {
	test.Parallel()
	if WrapError(operationName, subjectName, codeName, nil) != nil {
		test.Fatalf("expected nil wrapped error")
	}
}

func TestOperationErrorUnwrap(test *testing.T) {
	test.Parallel()
	wrappedError := WrapError("store", "balance", "adjust", ErrNegativeBalance)
	if !errors.Is(wrappedError, ErrNegativeBalance) {
		test.Fatalf("expected sentinel to survive wrapping, got %v", wrappedError)
	}
	var operationError OperationError
	if !errors.As(wrappedError, &operationError) {
		test.Fatalf("expected OperationError, got %T", wrappedError)
	}
	if operationError.Operation() != "store" || operationError.Subject() != "balance" || operationError.Code() != "adjust" {
		test.Fatalf("unexpected segments: %+v", operationError)
	}
}
