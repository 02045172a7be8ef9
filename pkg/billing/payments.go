package billing

import "context"

// RecordOfflinePayment records a counter payment and decrements the balance.
// The amount guard runs before any row is written; the payment insert and the
// balance update share one transaction so the ledger and the balance cannot
// diverge on a partial failure.
func (service *Service) RecordOfflinePayment(ctx context.Context, managerID ManagerID, customerID CustomerID, rawAmount string) error {
	amount, parseErr := ParseMoney(rawAmount)
	operationError := parseErr
	if operationError == nil {
		operationError = service.recordPayment(ctx, managerID, customerID, PaymentInput{
			Amount: amount,
			Mode:   PaymentModeOffline,
			Status: PaymentStatusCompleted,
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation:  operationOfflinePayment,
		ManagerID:  managerID,
		CustomerID: customerID,
		Amount:     amount,
		Error:      operationError,
	})
	return operationError
}

// RecordOnlinePayment records a gateway payment with its order reference and
// raw gateway payload alongside the balance decrement.
func (service *Service) RecordOnlinePayment(ctx context.Context, managerID ManagerID, customerID CustomerID, rawAmount string, reference string, gatewayMetadata string) error {
	amount, parseErr := ParseMoney(rawAmount)
	operationError := parseErr
	if operationError == nil {
		operationError = service.recordPayment(ctx, managerID, customerID, PaymentInput{
			Amount:          amount,
			Mode:            PaymentModeOnline,
			Status:          PaymentStatusCompleted,
			Reference:       reference,
			GatewayMetadata: gatewayMetadata,
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation:  operationOnlinePayment,
		ManagerID:  managerID,
		CustomerID: customerID,
		Amount:     amount,
		Error:      operationError,
	})
	return operationError
}

func (service *Service) recordPayment(ctx context.Context, managerID ManagerID, customerID CustomerID, input PaymentInput) error {
	customer, err := service.ownedCustomer(ctx, managerID, customerID)
	if err != nil {
		return err
	}
	if input.Amount.GreaterThan(customer.Balance) {
		return ErrPaymentExceedsBalance
	}
	input.CustomerID = customerID
	input.ManagerID = customer.ManagerID
	input.PaymentDate = service.nowFn()
	return service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.InsertPayment(ctx, input); err != nil {
			return err
		}
		return service.applyDelta(ctx, transactionStore, customerID, input.Amount.Neg())
	})
}

// PaymentHistory lists the payments of every customer owned by the manager,
// newest first.
func (service *Service) PaymentHistory(ctx context.Context, managerID ManagerID) ([]Payment, error) {
	return service.store.ListPaymentsByManager(ctx, managerID)
}
