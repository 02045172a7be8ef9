package billing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&*+-=?@_"

// AddCustomerResult reports a roster insert and its credential side effects.
type AddCustomerResult struct {
	CustomerID        CustomerID
	GeneratedPassword bool
	CredentialsSent   bool
	MailError         error
}

// ListCustomers returns the roster view for the filter.
func (service *Service) ListCustomers(ctx context.Context, filter CustomerFilter) ([]Customer, error) {
	return service.store.ListCustomers(ctx, filter)
}

// GetCustomer fetches one customer by id.
func (service *Service) GetCustomer(ctx context.Context, customerID CustomerID) (Customer, error) {
	return service.store.GetCustomer(ctx, customerID)
}

// AddCustomer inserts a customer for the manager. When no password is
// supplied a temporary one is generated and, if the customer has an email,
// handed to the mailer exactly once; the plaintext is never persisted. A
// mail failure degrades the result, it does not undo the insert.
func (service *Service) AddCustomer(ctx context.Context, managerID ManagerID, input CustomerInput, suppliedPassword string) (AddCustomerResult, error) {
	result := AddCustomerResult{}
	operationError := func() error {
		if err := input.Validate(); err != nil {
			return err
		}
		password := suppliedPassword
		if password == "" {
			generated, err := generatePassword(generatedPasswordLength)
			if err != nil {
				return err
			}
			password = generated
			result.GeneratedPassword = true
		}
		passwordHash, err := hashPassword(password)
		if err != nil {
			return err
		}
		customerID, err := service.store.CreateCustomer(ctx, Customer{
			BoxNumber:      input.BoxNumber,
			MobileNumber:   input.MobileNumber,
			Name:           input.Name,
			Email:          input.Email,
			PasswordHash:   passwordHash,
			PlanAmount:     input.PlanAmount,
			Address:        input.Address,
			ManagerID:      managerID,
			IsTempPassword: result.GeneratedPassword,
		})
		if err != nil {
			return err
		}
		result.CustomerID = customerID
		if result.GeneratedPassword && input.Email != "" && service.mailer != nil {
			if mailErr := service.mailer.SendCredentials(ctx, input.Email, input.MobileNumber, password); mailErr != nil {
				result.MailError = mailErr
			} else {
				result.CredentialsSent = true
			}
		}
		return nil
	}()
	service.logOperation(ctx, OperationLog{
		Operation:  operationAddCustomer,
		ManagerID:  managerID,
		CustomerID: result.CustomerID,
		Error:      operationError,
	})
	return result, operationError
}

// EditCustomer rewrites the editable fields. The stored hash is replaced only
// when a new password arrives, and IsTempPassword then records that a new
// password was supplied on this edit regardless of who supplied it.
func (service *Service) EditCustomer(ctx context.Context, managerID ManagerID, customerID CustomerID, input CustomerInput, newPassword string) error {
	operationError := func() error {
		if err := input.Validate(); err != nil {
			return err
		}
		if _, err := service.ownedCustomer(ctx, managerID, customerID); err != nil {
			return err
		}
		passwordHash := ""
		if newPassword != "" {
			hashed, err := hashPassword(newPassword)
			if err != nil {
				return err
			}
			passwordHash = hashed
		}
		return service.store.UpdateCustomer(ctx, customerID, input, passwordHash, newPassword != "")
	}()
	service.logOperation(ctx, OperationLog{
		Operation:  operationEditCustomer,
		ManagerID:  managerID,
		CustomerID: customerID,
		Error:      operationError,
	})
	return operationError
}

// DeleteCustomer removes the customer row. Payment history is left to the
// schema's referential rules.
func (service *Service) DeleteCustomer(ctx context.Context, managerID ManagerID, customerID CustomerID) error {
	operationError := func() error {
		if _, err := service.ownedCustomer(ctx, managerID, customerID); err != nil {
			return err
		}
		return service.store.DeleteCustomer(ctx, customerID)
	}()
	service.logOperation(ctx, OperationLog{
		Operation:  operationDeleteCustomer,
		ManagerID:  managerID,
		CustomerID: customerID,
		Error:      operationError,
	})
	return operationError
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func generatePassword(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(passwordAlphabet)))
	password := make([]byte, length)
	for position := range password {
		index, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		password[position] = passwordAlphabet[index.Int64()]
	}
	return string(password), nil
}
