package billing

import (
	"errors"
	"testing"
)

func TestParseMoney(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "plain integer", raw: "300", want: "300.00"},
		{name: "two decimals", raw: "549.50", want: "549.50"},
		{name: "surrounding spaces", raw: " 12.5 ", want: "12.50"},
		{name: "negative", raw: "-42", want: "-42.00"},
		{name: "empty", raw: "", wantErr: ErrInvalidAmount},
		{name: "words", raw: "three hundred", wantErr: ErrInvalidAmount},
		{name: "double dot", raw: "1.2.3", wantErr: ErrInvalidAmount},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			amount, err := ParseMoney(testCase.raw)
			if testCase.wantErr != nil {
				if !errors.Is(err, testCase.wantErr) {
					test.Fatalf("expected %v, got %v", testCase.wantErr, err)
				}
				return
			}
			if err != nil {
				test.Fatalf("parse: %v", err)
			}
			if amount.String() != testCase.want {
				test.Fatalf("expected %q, got %q", testCase.want, amount.String())
			}
		})
	}
}

func TestMoneyArithmetic(test *testing.T) {
	test.Parallel()
	balance := mustMoney(test, "500.00")
	charged := balance.Add(mustMoney(test, "300.00"))
	if charged.String() != "800.00" {
		test.Fatalf("expected 800.00, got %s", charged)
	}
	settled := charged.Sub(mustMoney(test, "800.00"))
	if settled.String() != "0.00" || settled.IsNegative() {
		test.Fatalf("expected settled zero, got %s", settled)
	}
	if !settled.Sub(mustMoney(test, "0.01")).IsNegative() {
		test.Fatalf("expected negative result below zero")
	}
}

func TestParsePaymentMode(test *testing.T) {
	test.Parallel()
	if _, err := ParsePaymentMode("offline"); err != nil {
		test.Fatalf("offline must parse: %v", err)
	}
	if _, err := ParsePaymentMode("online"); err != nil {
		test.Fatalf("online must parse: %v", err)
	}
	if _, err := ParsePaymentMode("cheque"); !errors.Is(err, ErrInvalidPaymentMode) {
		test.Fatalf("expected ErrInvalidPaymentMode, got %v", err)
	}
}

func TestParsePaymentStatus(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"completed", "pending", "failed"} {
		if _, err := ParsePaymentStatus(raw); err != nil {
			test.Fatalf("%q must parse: %v", raw, err)
		}
	}
	if _, err := ParsePaymentStatus("settled"); !errors.Is(err, ErrInvalidPaymentStatus) {
		test.Fatalf("expected ErrInvalidPaymentStatus, got %v", err)
	}
}

func TestIdentifierValidation(test *testing.T) {
	test.Parallel()
	if _, err := NewCustomerID(0); !errors.Is(err, ErrInvalidCustomerID) {
		test.Fatalf("expected ErrInvalidCustomerID, got %v", err)
	}
	if _, err := NewManagerID(-3); !errors.Is(err, ErrInvalidManagerID) {
		test.Fatalf("expected ErrInvalidManagerID, got %v", err)
	}
	if _, err := NewPendingManagerID(0); !errors.Is(err, ErrInvalidPendingID) {
		test.Fatalf("expected ErrInvalidPendingID, got %v", err)
	}
	customerID, err := NewCustomerID(12)
	if err != nil || customerID.Int64() != 12 {
		test.Fatalf("expected id 12, got %d (%v)", customerID.Int64(), err)
	}
}

func TestCustomerInputValidation(test *testing.T) {
	test.Parallel()
	valid := CustomerInput{
		BoxNumber:    "BX-1",
		MobileNumber: "9000000001",
		Name:         "Valid",
		PlanAmount:   mustMoney(test, "199.00"),
	}
	if err := valid.Validate(); err != nil {
		test.Fatalf("valid input rejected: %v", err)
	}

	missingBox := valid
	missingBox.BoxNumber = ""
	if err := missingBox.Validate(); !errors.Is(err, ErrInvalidCustomerInput) {
		test.Fatalf("expected ErrInvalidCustomerInput for missing box, got %v", err)
	}
	negativePlan := valid
	negativePlan.PlanAmount = mustMoney(test, "-5")
	if err := negativePlan.Validate(); !errors.Is(err, ErrInvalidCustomerInput) {
		test.Fatalf("expected ErrInvalidCustomerInput for negative plan, got %v", err)
	}
}
