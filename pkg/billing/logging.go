package billing

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing billing operation.
type OperationLog struct {
	Operation  string
	ManagerID  ManagerID
	CustomerID CustomerID
	Amount     Money
	Status     string
	Error      error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithMailer wires the credential-notification collaborator.
func WithMailer(mailer Mailer) ServiceOption {
	return func(service *Service) {
		service.mailer = mailer
	}
}

// Mailer delivers login credentials to a customer out of band.
type Mailer interface {
	SendCredentials(ctx context.Context, toEmail string, mobileNumber string, password string) error
}
