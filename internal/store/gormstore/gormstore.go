package gormstore

import (
	"context"
	"errors"

	"github.com/NorthBridgeLabs/billdesk/pkg/billing"
	gosqlite "github.com/glebarez/go-sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	pgUniqueViolationCode          = "23505"
	mysqlDuplicateEntryCode uint16 = 1062
	sqliteConstraintCode           = 19

	errorOperationStore  = "store"
	errorSubjectCustomer = "customer"
	errorSubjectBalance  = "balance"
	errorSubjectPayment  = "payment"
	errorSubjectManager  = "manager"
	errorSubjectPending  = "pending_manager"
	errorCodeCreate      = "create"
	errorCodeDelete      = "delete"
	errorCodeDuplicate   = "duplicate"
	errorCodeGet         = "get"
	errorCodeInsert      = "insert"
	errorCodeInvalid     = "invalid"
	errorCodeList        = "list"
	errorCodeLookup      = "lookup"
	errorCodeUpdate      = "update"
)

// Store implements billing.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema. Intended for the sqlite driver;
// mysql and postgres schemas are managed externally.
func (store *Store) Migrate() error {
	return store.db.AutoMigrate(&Manager{}, &PendingManager{}, &Customer{}, &Payment{})
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore billing.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) GetCustomer(ctx context.Context, customerID billing.CustomerID) (billing.Customer, error) {
	var model Customer
	err := store.db.WithContext(ctx).Take(&model, customerID.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.Customer{}, wrapStoreError(errorSubjectCustomer, errorCodeGet, billing.ErrNotFound)
		}
		return billing.Customer{}, wrapStoreError(errorSubjectCustomer, errorCodeGet, err)
	}
	return mapCustomer(model)
}

func (store *Store) ListCustomers(ctx context.Context, filter billing.CustomerFilter) ([]billing.Customer, error) {
	query := store.db.WithContext(ctx).Model(&Customer{})
	if filter.CustomerID != nil {
		query = query.Where("id = ?", filter.CustomerID.Int64())
	} else if filter.ManagerID != nil {
		query = query.Where("manager_id = ?", filter.ManagerID.Int64())
	}
	var rows []Customer
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectCustomer, errorCodeList, err)
	}
	customers := make([]billing.Customer, 0, len(rows))
	for _, row := range rows {
		customer, err := mapCustomer(row)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

func (store *Store) CreateCustomer(ctx context.Context, customer billing.Customer) (billing.CustomerID, error) {
	model := Customer{
		BoxNumber:      customer.BoxNumber,
		MobileNumber:   customer.MobileNumber,
		Name:           customer.Name,
		Email:          customer.Email,
		PasswordHash:   customer.PasswordHash,
		PlanAmount:     customer.PlanAmount.Decimal(),
		Address:        customer.Address,
		ManagerID:      customer.ManagerID.Int64(),
		Balance:        customer.Balance.Decimal(),
		IsTempPassword: customer.IsTempPassword,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isDuplicateKey(err) {
		return 0, wrapStoreError(errorSubjectCustomer, errorCodeDuplicate, billing.ErrDuplicateRecord)
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectCustomer, errorCodeCreate, err)
	}
	return billing.NewCustomerID(model.ID)
}

func (store *Store) UpdateCustomer(ctx context.Context, customerID billing.CustomerID, input billing.CustomerInput, passwordHash string, isTempPassword bool) error {
	assignments := map[string]interface{}{
		"box_number":    input.BoxNumber,
		"mobile_number": input.MobileNumber,
		"name":          input.Name,
		"email":         input.Email,
		"plan_amount":   input.PlanAmount.Decimal(),
		"address":       input.Address,
	}
	if passwordHash != "" {
		assignments["password"] = passwordHash
		assignments["is_temp_password"] = isTempPassword
	}
	result := store.db.WithContext(ctx).
		Model(&Customer{}).
		Where("id = ?", customerID.Int64()).
		Updates(assignments)
	if result.Error != nil {
		return wrapStoreError(errorSubjectCustomer, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCustomer, errorCodeUpdate, billing.ErrNotFound)
	}
	return nil
}

func (store *Store) DeleteCustomer(ctx context.Context, customerID billing.CustomerID) error {
	result := store.db.WithContext(ctx).Delete(&Customer{}, customerID.Int64())
	if result.Error != nil {
		return wrapStoreError(errorSubjectCustomer, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCustomer, errorCodeDelete, billing.ErrNotFound)
	}
	return nil
}

// AdjustCustomerBalance pushes the read-modify-write into one statement so
// concurrent deltas cannot overwrite each other. The non-negative guard
// lives in the WHERE clause; a zero-row update is then disambiguated into
// NotFound versus the guard.
func (store *Store) AdjustCustomerBalance(ctx context.Context, customerID billing.CustomerID, delta billing.Money) error {
	result := store.db.WithContext(ctx).
		Model(&Customer{}).
		Where("id = ? AND balance + ? >= 0", customerID.Int64(), delta.Decimal()).
		Update("balance", gorm.Expr("balance + ?", delta.Decimal()))
	if result.Error != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := store.db.WithContext(ctx).Model(&Customer{}).Where("id = ?", customerID.Int64()).Count(&exists).Error; err != nil {
			return wrapStoreError(errorSubjectBalance, errorCodeLookup, err)
		}
		if exists == 0 {
			return wrapStoreError(errorSubjectBalance, errorCodeUpdate, billing.ErrNotFound)
		}
		return wrapStoreError(errorSubjectBalance, errorCodeUpdate, billing.ErrNegativeBalance)
	}
	return nil
}

func (store *Store) InsertPayment(ctx context.Context, input billing.PaymentInput) (billing.PaymentID, error) {
	var reference *string
	if input.Reference != "" {
		value := input.Reference
		reference = &value
	}
	var metadata datatypes.JSON
	if input.GatewayMetadata != "" {
		metadata = datatypes.JSON([]byte(input.GatewayMetadata))
	}
	model := Payment{
		CustomerID:       input.CustomerID.Int64(),
		ManagerID:        input.ManagerID.Int64(),
		Amount:           input.Amount.Decimal(),
		PaymentMode:      input.Mode.String(),
		PaymentStatus:    input.Status.String(),
		PaymentReference: reference,
		GatewayMetadata:  metadata,
		PaymentDate:      input.PaymentDate,
		CreatedAt:        input.PaymentDate,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, wrapStoreError(errorSubjectPayment, errorCodeInsert, err)
	}
	return billing.PaymentID(model.ID), nil
}

func (store *Store) ListPaymentsByManager(ctx context.Context, managerID billing.ManagerID) ([]billing.Payment, error) {
	var rows []Payment
	err := store.db.WithContext(ctx).
		Model(&Payment{}).
		Joins("JOIN customers ON customers.id = payments.customer_id").
		Where("customers.manager_id = ?", managerID.Int64()).
		Order("payments.payment_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectPayment, errorCodeList, err)
	}
	payments := make([]billing.Payment, 0, len(rows))
	for _, row := range rows {
		payment, err := mapPayment(row)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

func (store *Store) GetManagerByEmail(ctx context.Context, email string) (billing.Manager, error) {
	var model Manager
	err := store.db.WithContext(ctx).Where("email = ?", email).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.Manager{}, wrapStoreError(errorSubjectManager, errorCodeLookup, billing.ErrManagerNotFound)
		}
		return billing.Manager{}, wrapStoreError(errorSubjectManager, errorCodeLookup, err)
	}
	return mapManager(model)
}

func (store *Store) CreateManager(ctx context.Context, manager billing.Manager) (billing.ManagerID, error) {
	model := Manager{
		Username:     manager.Username,
		Email:        manager.Email,
		MobileNumber: manager.MobileNumber,
		PasswordHash: manager.PasswordHash,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isDuplicateKey(err) {
		return 0, wrapStoreError(errorSubjectManager, errorCodeDuplicate, billing.ErrDuplicateRecord)
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectManager, errorCodeCreate, err)
	}
	return billing.NewManagerID(model.ID)
}

func (store *Store) CreatePendingManager(ctx context.Context, pending billing.PendingManager) (billing.PendingManagerID, error) {
	model := PendingManager{
		Username:     pending.Username,
		Email:        pending.Email,
		MobileNumber: pending.MobileNumber,
		PasswordHash: pending.PasswordHash,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isDuplicateKey(err) {
		return 0, wrapStoreError(errorSubjectPending, errorCodeDuplicate, billing.ErrDuplicateRecord)
	}
	if err != nil {
		return 0, wrapStoreError(errorSubjectPending, errorCodeCreate, err)
	}
	return billing.NewPendingManagerID(model.ID)
}

func (store *Store) GetPendingManager(ctx context.Context, pendingID billing.PendingManagerID) (billing.PendingManager, error) {
	var model PendingManager
	err := store.db.WithContext(ctx).Take(&model, pendingID.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.PendingManager{}, wrapStoreError(errorSubjectPending, errorCodeGet, billing.ErrPendingManagerNotFound)
		}
		return billing.PendingManager{}, wrapStoreError(errorSubjectPending, errorCodeGet, err)
	}
	return mapPendingManager(model)
}

func (store *Store) ListPendingManagers(ctx context.Context) ([]billing.PendingManager, error) {
	var rows []PendingManager
	if err := store.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectPending, errorCodeList, err)
	}
	pendingList := make([]billing.PendingManager, 0, len(rows))
	for _, row := range rows {
		pending, err := mapPendingManager(row)
		if err != nil {
			return nil, err
		}
		pendingList = append(pendingList, pending)
	}
	return pendingList, nil
}

func (store *Store) DeletePendingManager(ctx context.Context, pendingID billing.PendingManagerID) error {
	result := store.db.WithContext(ctx).Delete(&PendingManager{}, pendingID.Int64())
	if result.Error != nil {
		return wrapStoreError(errorSubjectPending, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectPending, errorCodeDelete, billing.ErrPendingManagerNotFound)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return billing.WrapError(errorOperationStore, subject, code, err)
}

func mapCustomer(row Customer) (billing.Customer, error) {
	customerID, err := billing.NewCustomerID(row.ID)
	if err != nil {
		return billing.Customer{}, wrapStoreError(errorSubjectCustomer, errorCodeInvalid, err)
	}
	managerID, err := billing.NewManagerID(row.ManagerID)
	if err != nil {
		return billing.Customer{}, wrapStoreError(errorSubjectCustomer, errorCodeInvalid, err)
	}
	return billing.Customer{
		ID:             customerID,
		BoxNumber:      row.BoxNumber,
		MobileNumber:   row.MobileNumber,
		Name:           row.Name,
		Email:          row.Email,
		PasswordHash:   row.PasswordHash,
		PlanAmount:     billing.MoneyFromDecimal(row.PlanAmount),
		Address:        row.Address,
		ManagerID:      managerID,
		Balance:        billing.MoneyFromDecimal(row.Balance),
		IsTempPassword: row.IsTempPassword,
		CreatedAt:      row.CreatedAt,
	}, nil
}

func mapPayment(row Payment) (billing.Payment, error) {
	customerID, err := billing.NewCustomerID(row.CustomerID)
	if err != nil {
		return billing.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeInvalid, err)
	}
	managerID, err := billing.NewManagerID(row.ManagerID)
	if err != nil {
		return billing.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeInvalid, err)
	}
	mode, err := billing.ParsePaymentMode(row.PaymentMode)
	if err != nil {
		return billing.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeInvalid, err)
	}
	status, err := billing.ParsePaymentStatus(row.PaymentStatus)
	if err != nil {
		return billing.Payment{}, wrapStoreError(errorSubjectPayment, errorCodeInvalid, err)
	}
	reference := ""
	if row.PaymentReference != nil {
		reference = *row.PaymentReference
	}
	return billing.Payment{
		ID:              billing.PaymentID(row.ID),
		CustomerID:      customerID,
		ManagerID:       managerID,
		Amount:          billing.MoneyFromDecimal(row.Amount),
		Mode:            mode,
		Status:          status,
		Reference:       reference,
		GatewayMetadata: string(row.GatewayMetadata),
		PaymentDate:     row.PaymentDate,
		CreatedAt:       row.CreatedAt,
	}, nil
}

func mapManager(row Manager) (billing.Manager, error) {
	managerID, err := billing.NewManagerID(row.ID)
	if err != nil {
		return billing.Manager{}, wrapStoreError(errorSubjectManager, errorCodeInvalid, err)
	}
	return billing.Manager{
		ID:           managerID,
		Username:     row.Username,
		Email:        row.Email,
		MobileNumber: row.MobileNumber,
		PasswordHash: row.PasswordHash,
	}, nil
}

func mapPendingManager(row PendingManager) (billing.PendingManager, error) {
	pendingID, err := billing.NewPendingManagerID(row.ID)
	if err != nil {
		return billing.PendingManager{}, wrapStoreError(errorSubjectPending, errorCodeInvalid, err)
	}
	return billing.PendingManager{
		ID:           pendingID,
		Username:     row.Username,
		Email:        row.Email,
		MobileNumber: row.MobileNumber,
		PasswordHash: row.PasswordHash,
	}, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntryCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
