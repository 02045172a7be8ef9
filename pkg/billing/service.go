package billing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service contains the domain logic over a Store.
type Service struct {
	store  Store
	nowFn  func() time.Time
	logger OperationLogger
	mailer Mailer
}

// NewService wires a Service. The clock supplies billing timestamps and is
// expected to carry the operation's local zone.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// ApplyDelta adds a signed amount to the customer's balance. A delta that
// would drive the balance below zero is rejected before any write.
func (service *Service) ApplyDelta(ctx context.Context, customerID CustomerID, delta Money) error {
	operationError := service.applyDelta(ctx, service.store, customerID, delta)
	service.logOperation(ctx, OperationLog{
		Operation:  operationApplyDelta,
		CustomerID: customerID,
		Amount:     delta,
		Error:      operationError,
	})
	return operationError
}

func (service *Service) applyDelta(ctx context.Context, store Store, customerID CustomerID, delta Money) error {
	customer, err := store.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if customer.Balance.Add(delta).IsNegative() {
		return ErrNegativeBalance
	}
	return store.AdjustCustomerBalance(ctx, customerID, delta)
}

// BillCustomer charges one customer their own plan amount.
func (service *Service) BillCustomer(ctx context.Context, managerID ManagerID, customerID CustomerID) error {
	operationError := func() error {
		customer, err := service.ownedCustomer(ctx, managerID, customerID)
		if err != nil {
			return err
		}
		return service.applyDelta(ctx, service.store, customerID, customer.PlanAmount)
	}()
	service.logOperation(ctx, OperationLog{
		Operation:  operationBillCustomer,
		ManagerID:  managerID,
		CustomerID: customerID,
		Error:      operationError,
	})
	return operationError
}

// BillAllCustomers charges every customer of the manager their plan amount.
// The broadcast is best effort: per-customer failures are skipped and only
// the count of successful updates is reported.
func (service *Service) BillAllCustomers(ctx context.Context, managerID ManagerID) (int, error) {
	customers, err := service.store.ListCustomers(ctx, CustomerFilter{ManagerID: &managerID})
	if err != nil {
		service.logOperation(ctx, OperationLog{
			Operation: operationBillAll,
			ManagerID: managerID,
			Error:     err,
		})
		return 0, err
	}
	successCount := 0
	for _, customer := range customers {
		if applyErr := service.applyDelta(ctx, service.store, customer.ID, customer.PlanAmount); applyErr == nil {
			successCount++
		}
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationBillAll,
		ManagerID: managerID,
	})
	return successCount, nil
}

func (service *Service) ownedCustomer(ctx context.Context, managerID ManagerID, customerID CustomerID) (Customer, error) {
	customer, err := service.store.GetCustomer(ctx, customerID)
	if err != nil {
		return Customer{}, err
	}
	if customer.ManagerID != managerID {
		return Customer{}, ErrNotFound
	}
	return customer, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

// IsNotFound reports whether the error denotes an absent record of any kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrManagerNotFound) ||
		errors.Is(err, ErrPendingManagerNotFound)
}
