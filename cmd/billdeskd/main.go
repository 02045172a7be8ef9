package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/NorthBridgeLabs/billdesk/internal/mailer"
	"github.com/NorthBridgeLabs/billdesk/internal/store/gormstore"
	"github.com/NorthBridgeLabs/billdesk/internal/webapi"
	"github.com/NorthBridgeLabs/billdesk/pkg/billing"
)

const (
	flagDatabaseURL       = "database-url"
	flagListenAddr        = "listen-addr"
	flagAllowedOrigins    = "allowed-origins"
	flagSessionSigningKey = "session-signing-key"
	flagSessionTTL        = "session-ttl"
	flagZoneOffsetMinutes = "zone-offset-minutes"

	configKeyDatabaseURL       = "database_url"
	configKeyListenAddr        = "listen_addr"
	configKeyAllowedOrigins    = "allowed_origins"
	configKeySessionSigningKey = "session_signing_key"
	configKeySessionTTL        = "session_ttl"
	configKeyZoneOffsetMinutes = "zone_offset_minutes"
	configKeySMTPHost          = "smtp_host"
	configKeySMTPPort          = "smtp_port"
	configKeySMTPAddress       = "smtp_address"
	configKeySMTPPassword      = "smtp_password"

	defaultDatabaseURL = "sqlite:///tmp/billdesk.db"
)

type runtimeConfig struct {
	DatabaseURL string
	Web         webapi.Config
	SMTP        mailer.SMTPConfig
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "billdeskd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "billdeskd",
		Short:         "Cable billing admin backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "Database connection string (mysql://, postgres://, sqlite:// or a file path)")
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagAllowedOrigins, "", "Comma-separated CORS origins")
	cmd.Flags().String(flagSessionSigningKey, "", "HMAC key for session cookies")
	cmd.Flags().Duration(flagSessionTTL, 0, "Session cookie lifetime")
	cmd.Flags().Int(flagZoneOffsetMinutes, 0, "Billing zone offset from UTC in minutes")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	// Missing .env is fine, environment variables still apply.
	_ = godotenv.Load()

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("BILLDESK")
	viper.AutomaticEnv()

	envBindings := map[string]string{
		configKeyDatabaseURL:       "BILLDESK_DATABASE_URL",
		configKeyListenAddr:        "BILLDESK_LISTEN_ADDR",
		configKeyAllowedOrigins:    "BILLDESK_ALLOWED_ORIGINS",
		configKeySessionSigningKey: "BILLDESK_SESSION_SIGNING_KEY",
		configKeySessionTTL:        "BILLDESK_SESSION_TTL",
		configKeyZoneOffsetMinutes: "BILLDESK_ZONE_OFFSET_MINUTES",
		configKeySMTPHost:          "BILLDESK_SMTP_HOST",
		configKeySMTPPort:          "BILLDESK_SMTP_PORT",
		configKeySMTPAddress:       "BILLDESK_SMTP_ADDRESS",
		configKeySMTPPassword:      "BILLDESK_SMTP_PASSWORD",
	}
	for key, envName := range envBindings {
		if err := viper.BindEnv(key, envName); err != nil {
			return err
		}
	}

	flagBindings := map[string]string{
		configKeyDatabaseURL:       flagDatabaseURL,
		configKeyListenAddr:        flagListenAddr,
		configKeyAllowedOrigins:    flagAllowedOrigins,
		configKeySessionSigningKey: flagSessionSigningKey,
		configKeySessionTTL:        flagSessionTTL,
		configKeyZoneOffsetMinutes: flagZoneOffsetMinutes,
	}
	for key, flagName := range flagBindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}

	cfg.Web = webapi.Config{
		ListenAddr:        viper.GetString(configKeyListenAddr),
		AllowedOrigins:    webapi.ParseAllowedOrigins(viper.GetString(configKeyAllowedOrigins)),
		SessionSigningKey: viper.GetString(configKeySessionSigningKey),
		SessionTTL:        viper.GetDuration(configKeySessionTTL),
		ZoneOffsetMinutes: viper.GetInt(configKeyZoneOffsetMinutes),
	}
	if err := cfg.Web.Validate(); err != nil {
		return err
	}

	cfg.SMTP = mailer.SMTPConfig{
		Host:     viper.GetString(configKeySMTPHost),
		Port:     viper.GetInt(configKeySMTPPort),
		Address:  viper.GetString(configKeySMTPAddress),
		Password: viper.GetString(configKeySMTPPassword),
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	store := gormstore.New(gormDB)
	if driver == "sqlite" {
		if err := store.Migrate(); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	billingZone := cfg.Web.BillingZone()
	clock := func() time.Time { return time.Now().In(billingZone) }

	options := []billing.ServiceOption{
		billing.WithOperationLogger(webapi.NewOperationLogger(logger)),
		billing.WithMailer(selectMailer(cfg.SMTP, logger)),
	}
	billingService, err := billing.NewService(store, clock, options...)
	if err != nil {
		return fmt.Errorf("billing service init: %w", err)
	}

	return webapi.Run(ctx, cfg.Web, billingService, logger)
}

func selectMailer(cfg mailer.SMTPConfig, logger *zap.Logger) billing.Mailer {
	smtpMailer, err := mailer.NewSMTPMailer(cfg)
	if err != nil {
		logger.Warn("smtp not configured, credential mails will be logged only", zap.Error(err))
		return mailer.NewLogMailer(logger)
	}
	return smtpMailer
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	gormCfg := &gorm.Config{}
	switch driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(mysqlDSN(dsn)), gormCfg)
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormCfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "mysql://") {
		return "mysql", "", nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "billdesk.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

// mysqlDSN converts a mysql:// URL into the go-sql-driver DSN form.
func mysqlDSN(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	credentials := ""
	if u.User != nil {
		credentials = u.User.Username()
		if password, ok := u.User.Password(); ok {
			credentials = credentials + ":" + password
		}
		credentials += "@"
	}
	database := strings.TrimPrefix(u.Path, "/")
	query := u.RawQuery
	if query == "" {
		query = "charset=utf8mb4&parseTime=True&loc=UTC"
	}
	return fmt.Sprintf("%stcp(%s)/%s?%s", credentials, u.Host, database, query)
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
