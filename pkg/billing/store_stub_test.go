package billing

import (
	"context"
	"sort"
	"testing"
	"time"
)

type stubStore struct {
	customers map[CustomerID]Customer
	payments  []Payment
	managers  map[ManagerID]Manager
	pending   map[PendingManagerID]PendingManager

	nextCustomerID int64
	nextPaymentID  int64
	nextManagerID  int64
	nextPendingID  int64

	getCustomerError      error
	listCustomersError    error
	createCustomerError   error
	updateCustomerError   error
	deleteCustomerError   error
	adjustBalanceError    error
	adjustBalanceErrors   map[CustomerID]error
	insertPaymentError    error
	listPaymentsError     error
	getManagerError       error
	createManagerError    error
	createPendingError    error
	deletePendingError    error
	transactionBeginError error
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{
		customers: map[CustomerID]Customer{},
		managers:  map[ManagerID]Manager{},
		pending:   map[PendingManagerID]PendingManager{},
	}
}

func (store *stubStore) addCustomer(test *testing.T, managerID ManagerID, balance Money, planAmount Money) Customer {
	test.Helper()
	store.nextCustomerID++
	customer := Customer{
		ID:           CustomerID(store.nextCustomerID),
		BoxNumber:    "box-1",
		MobileNumber: "9000000000",
		Name:         "Test Customer",
		PasswordHash: "$2a$10$stored-hash",
		PlanAmount:   planAmount,
		ManagerID:    managerID,
		Balance:      balance,
		CreatedAt:    time.Unix(0, 0),
	}
	store.customers[customer.ID] = customer
	return customer
}

// WithTx snapshots the in-memory state so a failing function observes
// rollback semantics, matching the transactional store contract.
func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	if store.transactionBeginError != nil {
		return store.transactionBeginError
	}
	customersSnapshot := make(map[CustomerID]Customer, len(store.customers))
	for id, customer := range store.customers {
		customersSnapshot[id] = customer
	}
	paymentsSnapshot := append([]Payment(nil), store.payments...)
	managersSnapshot := make(map[ManagerID]Manager, len(store.managers))
	for id, manager := range store.managers {
		managersSnapshot[id] = manager
	}
	pendingSnapshot := make(map[PendingManagerID]PendingManager, len(store.pending))
	for id, pending := range store.pending {
		pendingSnapshot[id] = pending
	}
	if err := fn(ctx, store); err != nil {
		store.customers = customersSnapshot
		store.payments = paymentsSnapshot
		store.managers = managersSnapshot
		store.pending = pendingSnapshot
		return err
	}
	return nil
}

func (store *stubStore) GetCustomer(_ context.Context, customerID CustomerID) (Customer, error) {
	if store.getCustomerError != nil {
		return Customer{}, store.getCustomerError
	}
	customer, ok := store.customers[customerID]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return customer, nil
}

func (store *stubStore) ListCustomers(_ context.Context, filter CustomerFilter) ([]Customer, error) {
	if store.listCustomersError != nil {
		return nil, store.listCustomersError
	}
	customers := make([]Customer, 0, len(store.customers))
	for _, customer := range store.customers {
		if filter.CustomerID != nil && customer.ID != *filter.CustomerID {
			continue
		}
		if filter.ManagerID != nil && customer.ManagerID != *filter.ManagerID {
			continue
		}
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(left, right int) bool { return customers[left].ID < customers[right].ID })
	return customers, nil
}

func (store *stubStore) CreateCustomer(_ context.Context, customer Customer) (CustomerID, error) {
	if store.createCustomerError != nil {
		return 0, store.createCustomerError
	}
	store.nextCustomerID++
	customer.ID = CustomerID(store.nextCustomerID)
	store.customers[customer.ID] = customer
	return customer.ID, nil
}

func (store *stubStore) UpdateCustomer(_ context.Context, customerID CustomerID, input CustomerInput, passwordHash string, isTempPassword bool) error {
	if store.updateCustomerError != nil {
		return store.updateCustomerError
	}
	customer, ok := store.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	customer.BoxNumber = input.BoxNumber
	customer.MobileNumber = input.MobileNumber
	customer.Name = input.Name
	customer.Email = input.Email
	customer.PlanAmount = input.PlanAmount
	customer.Address = input.Address
	if passwordHash != "" {
		customer.PasswordHash = passwordHash
		customer.IsTempPassword = isTempPassword
	}
	store.customers[customerID] = customer
	return nil
}

func (store *stubStore) DeleteCustomer(_ context.Context, customerID CustomerID) error {
	if store.deleteCustomerError != nil {
		return store.deleteCustomerError
	}
	if _, ok := store.customers[customerID]; !ok {
		return ErrNotFound
	}
	delete(store.customers, customerID)
	return nil
}

func (store *stubStore) AdjustCustomerBalance(_ context.Context, customerID CustomerID, delta Money) error {
	if store.adjustBalanceError != nil {
		return store.adjustBalanceError
	}
	if err, ok := store.adjustBalanceErrors[customerID]; ok {
		return err
	}
	customer, ok := store.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	newBalance := customer.Balance.Add(delta)
	if newBalance.IsNegative() {
		return ErrNegativeBalance
	}
	customer.Balance = newBalance
	store.customers[customerID] = customer
	return nil
}

func (store *stubStore) InsertPayment(_ context.Context, input PaymentInput) (PaymentID, error) {
	if store.insertPaymentError != nil {
		return 0, store.insertPaymentError
	}
	store.nextPaymentID++
	payment := Payment{
		ID:              PaymentID(store.nextPaymentID),
		CustomerID:      input.CustomerID,
		ManagerID:       input.ManagerID,
		Amount:          input.Amount,
		Mode:            input.Mode,
		Status:          input.Status,
		Reference:       input.Reference,
		GatewayMetadata: input.GatewayMetadata,
		PaymentDate:     input.PaymentDate,
		CreatedAt:       input.PaymentDate,
	}
	store.payments = append(store.payments, payment)
	return payment.ID, nil
}

func (store *stubStore) ListPaymentsByManager(_ context.Context, managerID ManagerID) ([]Payment, error) {
	if store.listPaymentsError != nil {
		return nil, store.listPaymentsError
	}
	payments := make([]Payment, 0, len(store.payments))
	for _, payment := range store.payments {
		if payment.ManagerID == managerID {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

func (store *stubStore) GetManagerByEmail(_ context.Context, email string) (Manager, error) {
	if store.getManagerError != nil {
		return Manager{}, store.getManagerError
	}
	for _, manager := range store.managers {
		if manager.Email == email {
			return manager, nil
		}
	}
	return Manager{}, ErrManagerNotFound
}

func (store *stubStore) CreateManager(_ context.Context, manager Manager) (ManagerID, error) {
	if store.createManagerError != nil {
		return 0, store.createManagerError
	}
	store.nextManagerID++
	manager.ID = ManagerID(store.nextManagerID)
	store.managers[manager.ID] = manager
	return manager.ID, nil
}

func (store *stubStore) CreatePendingManager(_ context.Context, pending PendingManager) (PendingManagerID, error) {
	if store.createPendingError != nil {
		return 0, store.createPendingError
	}
	store.nextPendingID++
	pending.ID = PendingManagerID(store.nextPendingID)
	store.pending[pending.ID] = pending
	return pending.ID, nil
}

func (store *stubStore) GetPendingManager(_ context.Context, pendingID PendingManagerID) (PendingManager, error) {
	pending, ok := store.pending[pendingID]
	if !ok {
		return PendingManager{}, ErrPendingManagerNotFound
	}
	return pending, nil
}

func (store *stubStore) ListPendingManagers(_ context.Context) ([]PendingManager, error) {
	pendingList := make([]PendingManager, 0, len(store.pending))
	for _, pending := range store.pending {
		pendingList = append(pendingList, pending)
	}
	sort.Slice(pendingList, func(left, right int) bool { return pendingList[left].ID < pendingList[right].ID })
	return pendingList, nil
}

func (store *stubStore) DeletePendingManager(_ context.Context, pendingID PendingManagerID) error {
	if store.deletePendingError != nil {
		return store.deletePendingError
	}
	if _, ok := store.pending[pendingID]; !ok {
		return ErrPendingManagerNotFound
	}
	delete(store.pending, pendingID)
	return nil
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, func() time.Time { return time.Unix(1_700_000_000, 0) }, options...)
	if err != nil {
		test.Fatalf("service init failed: %v", err)
	}
	return service
}

func mustMoney(test *testing.T, raw string) Money {
	test.Helper()
	amount, err := ParseMoney(raw)
	if err != nil {
		test.Fatalf("parse money %q: %v", raw, err)
	}
	return amount
}
