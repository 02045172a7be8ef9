package webapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NorthBridgeLabs/billdesk/internal/auth"
	"github.com/NorthBridgeLabs/billdesk/pkg/billing"
)

type httpHandler struct {
	logger   *zap.Logger
	service  *billing.Service
	sessions *auth.SessionManager
	cfg      Config
}

func (handler *httpHandler) handleLoginPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"service": "billdesk",
		"login":   "POST / with email and password",
		"signup":  "POST /signup",
	})
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")
	if email == "" || password == "" {
		handler.respondFailure(ctx, http.StatusUnauthorized, "Invalid email or password.", "/")
		return
	}
	manager, err := handler.service.Authenticate(ctx.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidCredentials) {
			handler.respondFailure(ctx, http.StatusUnauthorized, "Invalid email or password.", "/")
			return
		}
		handler.logger.Error("login failed", zap.Error(err))
		handler.respondFailure(ctx, http.StatusBadGateway, "Database connection failed!", "/")
		return
	}
	token, err := handler.sessions.Issue(manager.ID)
	if err != nil {
		handler.logger.Error("session issue failed", zap.Error(err))
		handler.respondFailure(ctx, http.StatusInternalServerError, "Login failed, please retry.", "/")
		return
	}
	ctx.SetCookie(handler.cfg.SessionCookieName, token, int(handler.cfg.SessionTTL.Seconds()), "/", "", false, true)
	handler.respondSuccess(ctx, "Manager login successful!", "/dashboard")
}

func (handler *httpHandler) handleSignupPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"service": "billdesk",
		"signup":  "POST /signup with username, email, mobile_number and password",
	})
}

func (handler *httpHandler) handleSignup(ctx *gin.Context) {
	input := billing.ManagerInput{
		Username:     strings.TrimSpace(ctx.PostForm("username")),
		Email:        strings.TrimSpace(ctx.PostForm("email")),
		MobileNumber: strings.TrimSpace(ctx.PostForm("mobile_number")),
		Password:     ctx.PostForm("password"),
	}
	if err := handler.service.SignUp(ctx.Request.Context(), input); err != nil {
		handler.respondError(ctx, err, "/")
		return
	}
	handler.respondSuccess(ctx, "Manager signup request submitted successfully", "/")
}

func (handler *httpHandler) handleLogout(ctx *gin.Context) {
	ctx.SetCookie(handler.cfg.SessionCookieName, "", -1, "/", "", false, true)
	handler.respondSuccess(ctx, "You have been logged out.", "/")
}

func (handler *httpHandler) handleDashboard(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	managerID := session.ManagerID
	customers, err := handler.service.ListCustomers(ctx.Request.Context(), billing.CustomerFilter{ManagerID: &managerID})
	if err != nil {
		handler.logger.Error("customer list failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("store_error", "Database connection failed!"))
		return
	}
	payments, err := handler.service.PaymentHistory(ctx.Request.Context(), managerID)
	if err != nil {
		handler.logger.Error("payment history failed", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("store_error", "Failed to fetch payment history."))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"customers": customerPayloads(customers),
		"payments":  paymentPayloads(payments),
	})
}

func (handler *httpHandler) handleAddCustomer(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	input, err := customerInputFromForm(ctx)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	result, err := handler.service.AddCustomer(ctx.Request.Context(), session.ManagerID, input, ctx.PostForm("password"))
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	switch {
	case result.MailError != nil:
		handler.respondSuccess(ctx, "Customer added, but failed to send credentials email.", "/dashboard")
	case result.CredentialsSent:
		handler.respondSuccess(ctx, "Customer added successfully and credentials sent to customer's email.", "/dashboard")
	default:
		handler.respondSuccess(ctx, "Customer added successfully", "/dashboard")
	}
}

func (handler *httpHandler) handleEditCustomer(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	customerID, err := pathCustomerID(ctx)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	input, err := customerInputFromForm(ctx)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	if err := handler.service.EditCustomer(ctx.Request.Context(), session.ManagerID, customerID, input, ctx.PostForm("password")); err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	handler.respondSuccess(ctx, "Customer updated successfully", "/dashboard")
}

func (handler *httpHandler) handleDeleteCustomer(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	customerID, err := pathCustomerID(ctx)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	if err := handler.service.DeleteCustomer(ctx.Request.Context(), session.ManagerID, customerID); err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	handler.respondSuccess(ctx, "Customer deleted successfully", "/dashboard")
}

func (handler *httpHandler) handleAddBill(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	customerID, err := pathCustomerID(ctx)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	if err := handler.service.BillCustomer(ctx.Request.Context(), session.ManagerID, customerID); err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	handler.respondSuccess(ctx, "Balance updated successfully", "/dashboard")
}

func (handler *httpHandler) handleAddAllBills(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	successCount, err := handler.service.BillAllCustomers(ctx.Request.Context(), session.ManagerID)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	handler.respondSuccess(ctx, fmt.Sprintf("Bills added successfully for %d customers.", successCount), "/dashboard")
}

func (handler *httpHandler) handlePayOffline(ctx *gin.Context) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	customerID, err := pathCustomerID(ctx)
	if err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	if err := handler.service.RecordOfflinePayment(ctx.Request.Context(), session.ManagerID, customerID, ctx.PostForm("amount")); err != nil {
		handler.respondError(ctx, err, "/dashboard")
		return
	}
	handler.respondSuccess(ctx, "Payment recorded successfully", "/dashboard")
}

func customerInputFromForm(ctx *gin.Context) (billing.CustomerInput, error) {
	planAmount, err := billing.ParseMoney(ctx.PostForm("plan_amount"))
	if err != nil {
		return billing.CustomerInput{}, err
	}
	return billing.CustomerInput{
		BoxNumber:    strings.TrimSpace(ctx.PostForm("box_number")),
		MobileNumber: strings.TrimSpace(ctx.PostForm("mobile_number")),
		Name:         strings.TrimSpace(ctx.PostForm("name")),
		Email:        strings.TrimSpace(ctx.PostForm("email")),
		PlanAmount:   planAmount,
		Address:      strings.TrimSpace(ctx.PostForm("address")),
	}, nil
}

func pathCustomerID(ctx *gin.Context) (billing.CustomerID, error) {
	raw, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed customer id", billing.ErrInvalidCustomerID)
	}
	return billing.NewCustomerID(raw)
}

func (handler *httpHandler) respondSuccess(ctx *gin.Context, message string, redirectTo string) {
	if wantsJSON(ctx) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "message": message})
		return
	}
	setNotice(ctx, message)
	ctx.Redirect(http.StatusSeeOther, redirectTo)
}

func (handler *httpHandler) respondFailure(ctx *gin.Context, status int, message string, redirectTo string) {
	if wantsJSON(ctx) {
		ctx.JSON(status, errorResponse(codeForStatus(status), message))
		return
	}
	setNotice(ctx, message)
	ctx.Redirect(http.StatusSeeOther, redirectTo)
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error, redirectTo string) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		handler.logger.Error("operation failed", zap.Error(err))
	}
	handler.respondFailure(ctx, status, message, redirectTo)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, billing.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid payment amount."
	case errors.Is(err, billing.ErrInvalidCustomerInput), errors.Is(err, billing.ErrInvalidManagerInput), errors.Is(err, billing.ErrInvalidCustomerID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, billing.ErrPaymentExceedsBalance):
		return http.StatusConflict, "Payment amount cannot exceed current balance."
	case errors.Is(err, billing.ErrNegativeBalance):
		return http.StatusConflict, "Balance cannot be negative"
	case errors.Is(err, billing.ErrDuplicateRecord):
		return http.StatusConflict, "Record already exists."
	case billing.IsNotFound(err):
		return http.StatusNotFound, "Customer not found."
	default:
		return http.StatusBadGateway, "Database connection failed!"
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "invalid_state"
	default:
		return "store_error"
	}
}

func setNotice(ctx *gin.Context, message string) {
	ctx.SetCookie(noticeCookieName, url.QueryEscape(message), 60, "/", "", false, false)
}

func wantsJSON(ctx *gin.Context) bool {
	if strings.Contains(ctx.GetHeader("Accept"), "application/json") {
		return true
	}
	return strings.Contains(ctx.ContentType(), "application/json")
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

type customerPayload struct {
	ID             int64  `json:"id"`
	BoxNumber      string `json:"box_number"`
	MobileNumber   string `json:"mobile_number"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	PlanAmount     string `json:"plan_amount"`
	Address        string `json:"address"`
	Balance        string `json:"balance"`
	IsTempPassword bool   `json:"is_temp_password"`
	CreatedAt      int64  `json:"created_unix_utc"`
}

type paymentPayload struct {
	ID          int64  `json:"id"`
	CustomerID  int64  `json:"customer_id"`
	Amount      string `json:"amount"`
	Mode        string `json:"payment_mode"`
	Status      string `json:"payment_status"`
	Reference   string `json:"payment_reference,omitempty"`
	PaymentDate int64  `json:"payment_date_unix_utc"`
}

func customerPayloads(customers []billing.Customer) []customerPayload {
	payloads := make([]customerPayload, 0, len(customers))
	for _, customer := range customers {
		payloads = append(payloads, customerPayload{
			ID:             customer.ID.Int64(),
			BoxNumber:      customer.BoxNumber,
			MobileNumber:   customer.MobileNumber,
			Name:           customer.Name,
			Email:          customer.Email,
			PlanAmount:     customer.PlanAmount.String(),
			Address:        customer.Address,
			Balance:        customer.Balance.String(),
			IsTempPassword: customer.IsTempPassword,
			CreatedAt:      customer.CreatedAt.Unix(),
		})
	}
	return payloads
}

func paymentPayloads(payments []billing.Payment) []paymentPayload {
	payloads := make([]paymentPayload, 0, len(payments))
	for _, payment := range payments {
		payloads = append(payloads, paymentPayload{
			ID:          int64(payment.ID),
			CustomerID:  payment.CustomerID.Int64(),
			Amount:      payment.Amount.String(),
			Mode:        payment.Mode.String(),
			Status:      payment.Status.String(),
			Reference:   payment.Reference,
			PaymentDate: payment.PaymentDate.Unix(),
		})
	}
	return payloads
}
