package billing

const (
	operationApplyDelta     = "apply_delta"
	operationBillCustomer   = "bill_customer"
	operationBillAll        = "bill_all"
	operationOfflinePayment = "offline_payment"
	operationOnlinePayment  = "online_payment"
	operationAddCustomer    = "add_customer"
	operationEditCustomer   = "edit_customer"
	operationDeleteCustomer = "delete_customer"
	operationSignUp         = "sign_up"
	operationApproveManager = "approve_manager"
	operationRejectManager  = "reject_manager"
	operationAuthenticate   = "authenticate"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	generatedPasswordLength = 8
)
