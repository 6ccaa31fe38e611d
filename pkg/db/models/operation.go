package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellerpay/payouts-backend/pkg/enums"
)

// Operation is a single requested money movement: a transfer from the
// technical wallet into a seller (or operator) wallet, followed by a withdraw
// from that wallet to the linked bank account. A nil SellerID means the
// operation pays out the platform operator itself.
type Operation struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        *int64                `gorm:"column:seller_id"`
	WalletAccountID string                `gorm:"column:wallet_account_id"`
	Amount          decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Status          enums.OperationStatus `gorm:"column:status;type:operation_status_enum;not null;default:'created'"`
	TransferRef     string                `gorm:"column:transfer_ref"`
	WithdrawRef     string                `gorm:"column:withdraw_ref"`
	WithdrawnAmount decimal.NullDecimal   `gorm:"column:withdrawn_amount;type:numeric(12,2)"`
	CycleDate       time.Time             `gorm:"column:cycle_date;type:date;not null"`
	UpdatedAt       time.Time             `gorm:"column:updated_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// IsOperator reports whether the operation belongs to the platform operator.
func (o *Operation) IsOperator() bool {
	return o.SellerID == nil
}
