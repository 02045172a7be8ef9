package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerID identifies a customer row.
type CustomerID int64

// ManagerID identifies an approved manager.
type ManagerID int64

// PendingManagerID identifies a signup awaiting approval.
type PendingManagerID int64

// PaymentID identifies a payment ledger row.
type PaymentID int64

// Money is a fixed-point currency amount with two-digit scale.
type Money struct {
	value decimal.Decimal
}

// PaymentMode distinguishes gateway payments from counter payments.
type PaymentMode string

const (
	PaymentModeOnline  PaymentMode = "online"
	PaymentModeOffline PaymentMode = "offline"
)

// PaymentStatus tracks the settlement state of a payment row.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// NewCustomerID validates a customer id.
func NewCustomerID(raw int64) (CustomerID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidCustomerID)
	}
	return CustomerID(raw), nil
}

// Int64 returns the raw identifier.
func (id CustomerID) Int64() int64 {
	return int64(id)
}

// NewManagerID validates a manager id.
func NewManagerID(raw int64) (ManagerID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidManagerID)
	}
	return ManagerID(raw), nil
}

// Int64 returns the raw identifier.
func (id ManagerID) Int64() int64 {
	return int64(id)
}

// NewPendingManagerID validates a pending manager id.
func NewPendingManagerID(raw int64) (PendingManagerID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidPendingID)
	}
	return PendingManagerID(raw), nil
}

// Int64 returns the raw identifier.
func (id PendingManagerID) Int64() int64 {
	return int64(id)
}

// ParseMoney converts request input into a Money value.
func ParseMoney(raw string) (Money, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Money{}, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, trimmed)
	}
	return Money{value: value}, nil
}

// MoneyFromDecimal wraps a decimal without re-parsing.
func MoneyFromDecimal(value decimal.Decimal) Money {
	return Money{value: value}
}

// Add returns the sum of two amounts.
func (money Money) Add(other Money) Money {
	return Money{value: money.value.Add(other.value)}
}

// Sub returns the difference of two amounts.
func (money Money) Sub(other Money) Money {
	return Money{value: money.value.Sub(other.value)}
}

// Neg returns the negated amount.
func (money Money) Neg() Money {
	return Money{value: money.value.Neg()}
}

// IsNegative reports whether the amount is below zero.
func (money Money) IsNegative() bool {
	return money.value.IsNegative()
}

// GreaterThan reports whether the amount exceeds the other.
func (money Money) GreaterThan(other Money) bool {
	return money.value.GreaterThan(other.value)
}

// Equal reports amount equality independent of scale.
func (money Money) Equal(other Money) bool {
	return money.value.Equal(other.value)
}

// Decimal exposes the underlying decimal value.
func (money Money) Decimal() decimal.Decimal {
	return money.value
}

// String renders the amount with a fixed two-digit scale.
func (money Money) String() string {
	return money.value.StringFixed(2)
}

// ParsePaymentMode validates a payment mode string.
func ParsePaymentMode(raw string) (PaymentMode, error) {
	switch PaymentMode(raw) {
	case PaymentModeOnline, PaymentModeOffline:
		return PaymentMode(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMode, raw)
	}
}

// String returns the stored mode value.
func (mode PaymentMode) String() string {
	return string(mode)
}

// ParsePaymentStatus validates a payment status string.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(raw) {
	case PaymentStatusCompleted, PaymentStatusPending, PaymentStatusFailed:
		return PaymentStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, raw)
	}
}

// String returns the stored status value.
func (status PaymentStatus) String() string {
	return string(status)
}

// Manager is an approved operator account.
type Manager struct {
	ID           ManagerID
	Username     string
	Email        string
	MobileNumber string
	PasswordHash string
}

// PendingManager is a signup awaiting approval or rejection.
type PendingManager struct {
	ID           PendingManagerID
	Username     string
	Email        string
	MobileNumber string
	PasswordHash string
}

// Customer is a subscriber owned by exactly one manager.
type Customer struct {
	ID             CustomerID
	BoxNumber      string
	MobileNumber   string
	Name           string
	Email          string
	PasswordHash   string
	PlanAmount     Money
	Address        string
	ManagerID      ManagerID
	Balance        Money
	IsTempPassword bool
	CreatedAt      time.Time
}

// Payment is a single immutable line in the payment ledger.
type Payment struct {
	ID              PaymentID
	CustomerID      CustomerID
	ManagerID       ManagerID
	Amount          Money
	Mode            PaymentMode
	Status          PaymentStatus
	Reference       string
	GatewayMetadata string
	PaymentDate     time.Time
	CreatedAt       time.Time
}

// CustomerInput carries the editable customer fields for create and edit.
type CustomerInput struct {
	BoxNumber    string
	MobileNumber string
	Name         string
	Email        string
	PlanAmount   Money
	Address      string
}

// Validate rejects inputs the schema cannot hold.
func (input CustomerInput) Validate() error {
	if strings.TrimSpace(input.BoxNumber) == "" {
		return fmt.Errorf("%w: box number is required", ErrInvalidCustomerInput)
	}
	if strings.TrimSpace(input.MobileNumber) == "" {
		return fmt.Errorf("%w: mobile number is required", ErrInvalidCustomerInput)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCustomerInput)
	}
	if input.PlanAmount.IsNegative() {
		return fmt.Errorf("%w: plan amount cannot be negative", ErrInvalidCustomerInput)
	}
	return nil
}

// ManagerInput carries the signup fields for a pending manager.
type ManagerInput struct {
	Username     string
	Email        string
	MobileNumber string
	Password     string
}

// Validate rejects signups the schema cannot hold.
func (input ManagerInput) Validate() error {
	if strings.TrimSpace(input.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidManagerInput)
	}
	if strings.TrimSpace(input.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidManagerInput)
	}
	if strings.TrimSpace(input.MobileNumber) == "" {
		return fmt.Errorf("%w: mobile number is required", ErrInvalidManagerInput)
	}
	if input.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidManagerInput)
	}
	return nil
}

// PaymentInput describes a ledger row to insert.
type PaymentInput struct {
	CustomerID      CustomerID
	ManagerID       ManagerID
	Amount          Money
	Mode            PaymentMode
	Status          PaymentStatus
	Reference       string
	GatewayMetadata string
	PaymentDate     time.Time
}

// CustomerFilter scopes ListCustomers. At most one field may be set.
type CustomerFilter struct {
	CustomerID *CustomerID
	ManagerID  *ManagerID
}

// Store is the persistence contract used by Service.
// (gormstore implements this.)
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	GetCustomer(ctx context.Context, customerID CustomerID) (Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]Customer, error)
	CreateCustomer(ctx context.Context, customer Customer) (CustomerID, error)
	UpdateCustomer(ctx context.Context, customerID CustomerID, input CustomerInput, passwordHash string, isTempPassword bool) error
	DeleteCustomer(ctx context.Context, customerID CustomerID) error
	AdjustCustomerBalance(ctx context.Context, customerID CustomerID, delta Money) error

	InsertPayment(ctx context.Context, input PaymentInput) (PaymentID, error)
	ListPaymentsByManager(ctx context.Context, managerID ManagerID) ([]Payment, error)

	GetManagerByEmail(ctx context.Context, email string) (Manager, error)
	CreateManager(ctx context.Context, manager Manager) (ManagerID, error)

	CreatePendingManager(ctx context.Context, pending PendingManager) (PendingManagerID, error)
	GetPendingManager(ctx context.Context, pendingID PendingManagerID) (PendingManager, error)
	ListPendingManagers(ctx context.Context) ([]PendingManager, error)
	DeletePendingManager(ctx context.Context, pendingID PendingManagerID) error
}
