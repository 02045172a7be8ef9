package webapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NorthBridgeLabs/billdesk/internal/auth"
	"github.com/NorthBridgeLabs/billdesk/pkg/billing"
)

const shutdownTimeout = 5 * time.Second

// Run boots the HTTP admin surface using the supplied configuration.
func Run(ctx context.Context, cfg Config, service *billing.Service, logger *zap.Logger) error {
	sessions, err := auth.NewSessionManager([]byte(cfg.SessionSigningKey), cfg.SessionIssuer, cfg.SessionTTL)
	if err != nil {
		return err
	}

	handler := &httpHandler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		cfg:      cfg,
	}

	router := setupRouter(cfg, handler, sessions)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("billdesk listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, sessions *auth.SessionManager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", handler.handleLoginPage)
	router.POST("/", handler.handleLogin)
	router.GET("/signup", handler.handleSignupPage)
	router.POST("/signup", handler.handleSignup)
	router.GET("/logout", handler.handleLogout)

	protected := router.Group("/")
	protected.Use(auth.RequireManager(sessions, cfg.SessionCookieName))
	protected.GET("/dashboard", handler.handleDashboard)
	protected.POST("/add_customer", handler.handleAddCustomer)
	protected.POST("/edit_customer/:id", handler.handleEditCustomer)
	protected.POST("/delete_customer/:id", handler.handleDeleteCustomer)
	protected.POST("/add_bill/:id", handler.handleAddBill)
	protected.POST("/add_all_bills", handler.handleAddAllBills)
	protected.POST("/pay_offline/:id", handler.handlePayOffline)

	return router
}

// OperationLogger adapts billing operation callbacks onto zap.
type OperationLogger struct {
	logger *zap.Logger
}

// NewOperationLogger wires the adapter.
func NewOperationLogger(logger *zap.Logger) *OperationLogger {
	return &OperationLogger{logger: logger}
}

// LogOperation emits one structured line per state-changing operation.
func (adapter *OperationLogger) LogOperation(_ context.Context, entry billing.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.ManagerID != 0 {
		fields = append(fields, zap.Int64("manager_id", entry.ManagerID.Int64()))
	}
	if entry.CustomerID != 0 {
		fields = append(fields, zap.Int64("customer_id", entry.CustomerID.Int64()))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		adapter.logger.Warn("billing operation failed", fields...)
		return
	}
	adapter.logger.Info("billing operation", fields...)
}
