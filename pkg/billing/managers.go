package billing

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// SignUp stores a signup request awaiting approval. The password is hashed
// before it leaves this function.
func (service *Service) SignUp(ctx context.Context, input ManagerInput) error {
	operationError := func() error {
		if err := input.Validate(); err != nil {
			return err
		}
		passwordHash, err := hashPassword(input.Password)
		if err != nil {
			return err
		}
		_, err = service.store.CreatePendingManager(ctx, PendingManager{
			Username:     input.Username,
			Email:        input.Email,
			MobileNumber: input.MobileNumber,
			PasswordHash: passwordHash,
		})
		return err
	}()
	service.logOperation(ctx, OperationLog{
		Operation: operationSignUp,
		Error:     operationError,
	})
	return operationError
}

// ListPendingManagers returns every signup awaiting a decision.
func (service *Service) ListPendingManagers(ctx context.Context) ([]PendingManager, error) {
	return service.store.ListPendingManagers(ctx)
}

// ApproveManager copies the pending row into the manager table and deletes
// the pending row in one transaction.
func (service *Service) ApproveManager(ctx context.Context, pendingID PendingManagerID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		pending, err := transactionStore.GetPendingManager(ctx, pendingID)
		if err != nil {
			return err
		}
		if _, err := transactionStore.CreateManager(ctx, Manager{
			Username:     pending.Username,
			Email:        pending.Email,
			MobileNumber: pending.MobileNumber,
			PasswordHash: pending.PasswordHash,
		}); err != nil {
			return err
		}
		return transactionStore.DeletePendingManager(ctx, pendingID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationApproveManager,
		Error:     operationError,
	})
	return operationError
}

// RejectManager deletes the pending row.
func (service *Service) RejectManager(ctx context.Context, pendingID PendingManagerID) error {
	operationError := service.store.DeletePendingManager(ctx, pendingID)
	service.logOperation(ctx, OperationLog{
		Operation: operationRejectManager,
		Error:     operationError,
	})
	return operationError
}

// Authenticate verifies a manager login. Unknown emails and wrong passwords
// return the same error so the response cannot reveal whether the email
// exists.
func (service *Service) Authenticate(ctx context.Context, email string, password string) (Manager, error) {
	manager, operationError := func() (Manager, error) {
		manager, err := service.store.GetManagerByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, ErrManagerNotFound) {
				return Manager{}, ErrInvalidCredentials
			}
			return Manager{}, err
		}
		if bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte(password)) != nil {
			return Manager{}, ErrInvalidCredentials
		}
		return manager, nil
	}()
	service.logOperation(ctx, OperationLog{
		Operation: operationAuthenticate,
		ManagerID: manager.ID,
		Error:     operationError,
	})
	return manager, operationError
}
