package gormstore

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Manager represents the managers table.
type Manager struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"not null"`
	Email        string `gorm:"not null;uniqueIndex:uniq_managers_email"`
	MobileNumber string `gorm:"not null"`
	PasswordHash string `gorm:"column:password;not null"`
	CreatedAt    time.Time
}

func (Manager) TableName() string { return "managers" }

// PendingManager mirrors the pending_users table holding signups awaiting
// approval.
type PendingManager struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"not null"`
	Email        string `gorm:"not null;uniqueIndex:uniq_pending_users_email"`
	MobileNumber string `gorm:"not null"`
	PasswordHash string `gorm:"column:password;not null"`
	CreatedAt    time.Time
}

func (PendingManager) TableName() string { return "pending_users" }

// Customer mirrors the customers table.
type Customer struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	BoxNumber      string          `gorm:"not null"`
	MobileNumber   string          `gorm:"not null"`
	Name           string          `gorm:"not null"`
	Email          string          `gorm:""`
	PasswordHash   string          `gorm:"column:password;not null"`
	PlanAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Address        string          `gorm:""`
	ManagerID      int64           `gorm:"not null;index:idx_customers_manager"`
	Balance        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	IsTempPassword bool            `gorm:"not null;default:false"`
	CreatedAt      time.Time       `gorm:"not null"`
}

func (Customer) TableName() string { return "customers" }

// Payment mirrors the payments table. Rows are append only.
type Payment struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	CustomerID       int64           `gorm:"not null;index:idx_payments_customer"`
	ManagerID        int64           `gorm:"not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentMode      string          `gorm:"not null"`
	PaymentStatus    string          `gorm:"not null"`
	PaymentReference *string         `gorm:""`
	GatewayMetadata  datatypes.JSON  `gorm:""`
	PaymentDate      time.Time       `gorm:"not null;index:idx_payments_date"`
	CreatedAt        time.Time       `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }
