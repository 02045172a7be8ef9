package billing

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func managerInputFixture() ManagerInput {
	return ManagerInput{
		Username:     "ops-manager",
		Email:        "manager@example.com",
		MobileNumber: "9123456780",
		Password:     "super-secret",
	}
}

func TestSignUpStoresHashedPending(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	input := managerInputFixture()

	if err := service.SignUp(context.Background(), input); err != nil {
		test.Fatalf("sign up: %v", err)
	}
	if len(store.pending) != 1 {
		test.Fatalf("expected one pending row, got %d", len(store.pending))
	}
	pending := store.pending[PendingManagerID(1)]
	if pending.PasswordHash == input.Password {
		test.Fatalf("password must never be stored as plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(pending.PasswordHash), []byte(input.Password)) != nil {
		test.Fatalf("stored hash does not verify against the signup password")
	}
}

func TestSignUpValidatesInput(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	input := managerInputFixture()
	input.Email = ""

	err := service.SignUp(context.Background(), input)
	if !errors.Is(err, ErrInvalidManagerInput) {
		test.Fatalf("expected ErrInvalidManagerInput, got %v", err)
	}
}

func TestApproveManagerCopiesAndDeletes(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	if err := service.SignUp(context.Background(), managerInputFixture()); err != nil {
		test.Fatalf("sign up: %v", err)
	}
	pendingID := PendingManagerID(1)
	pendingHash := store.pending[pendingID].PasswordHash

	if err := service.ApproveManager(context.Background(), pendingID); err != nil {
		test.Fatalf("approve: %v", err)
	}
	if len(store.pending) != 0 {
		test.Fatalf("pending row must be deleted on approval")
	}
	if len(store.managers) != 1 {
		test.Fatalf("expected one approved manager, got %d", len(store.managers))
	}
	approved := store.managers[ManagerID(1)]
	if approved.Email != "manager@example.com" || approved.PasswordHash != pendingHash {
		test.Fatalf("approval must copy the pending row verbatim: %+v", approved)
	}
}

func TestApproveManagerUnknownPending(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)

	err := service.ApproveManager(context.Background(), PendingManagerID(42))
	if !errors.Is(err, ErrPendingManagerNotFound) {
		test.Fatalf("expected ErrPendingManagerNotFound, got %v", err)
	}
}

func TestApproveManagerRollsBackOnDeleteFailure(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	if err := service.SignUp(context.Background(), managerInputFixture()); err != nil {
		test.Fatalf("sign up: %v", err)
	}
	deleteError := errors.New("delete failed")
	store.deletePendingError = deleteError

	err := service.ApproveManager(context.Background(), PendingManagerID(1))
	if !errors.Is(err, deleteError) {
		test.Fatalf("expected delete error, got %v", err)
	}
	if len(store.managers) != 0 {
		test.Fatalf("manager copy must roll back with the failed delete")
	}
	if len(store.pending) != 1 {
		test.Fatalf("pending row must survive the rolled-back approval")
	}
}

func TestRejectManagerDeletesPending(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	if err := service.SignUp(context.Background(), managerInputFixture()); err != nil {
		test.Fatalf("sign up: %v", err)
	}

	if err := service.RejectManager(context.Background(), PendingManagerID(1)); err != nil {
		test.Fatalf("reject: %v", err)
	}
	if len(store.pending) != 0 {
		test.Fatalf("pending row must be deleted on rejection")
	}
	if len(store.managers) != 0 {
		test.Fatalf("rejection must not create a manager")
	}
}

func TestAuthenticateSuccess(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	passwordHash, err := hashPassword("right-password")
	if err != nil {
		test.Fatalf("hash: %v", err)
	}
	if _, err := store.CreateManager(context.Background(), Manager{Email: "manager@example.com", PasswordHash: passwordHash}); err != nil {
		test.Fatalf("seed manager: %v", err)
	}
	service := mustNewService(test, store)

	manager, err := service.Authenticate(context.Background(), "manager@example.com", "right-password")
	if err != nil {
		test.Fatalf("authenticate: %v", err)
	}
	if manager.ID != ManagerID(1) {
		test.Fatalf("unexpected manager: %+v", manager)
	}
}

func TestAuthenticateRejectionIsGeneric(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	passwordHash, err := hashPassword("right-password")
	if err != nil {
		test.Fatalf("hash: %v", err)
	}
	if _, err := store.CreateManager(context.Background(), Manager{Email: "manager@example.com", PasswordHash: passwordHash}); err != nil {
		test.Fatalf("seed manager: %v", err)
	}
	service := mustNewService(test, store)

	_, wrongPasswordErr := service.Authenticate(context.Background(), "manager@example.com", "wrong-password")
	_, unknownEmailErr := service.Authenticate(context.Background(), "nobody@example.com", "right-password")
	if !errors.Is(wrongPasswordErr, ErrInvalidCredentials) {
		test.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPasswordErr)
	}
	if !errors.Is(unknownEmailErr, ErrInvalidCredentials) {
		test.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownEmailErr)
	}
	if wrongPasswordErr.Error() != unknownEmailErr.Error() {
		test.Fatalf("rejection must not reveal whether the email exists")
	}
}
