package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor mirrors a marketplace seller and the wallet account provisioned for
// it at the payment provider. The platform operator is not stored here; its
// account comes from configuration.
type Vendor struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        int64     `gorm:"column:seller_id;uniqueIndex:ux_vendors_seller_id;not null"`
	Email           string    `gorm:"column:email;not null"`
	WalletAccountID string    `gorm:"column:wallet_account_id"`
	WalletSpaceID   string    `gorm:"column:wallet_space_id"`
	Identified      bool      `gorm:"column:identified;not null;default:false"`
	Enabled         bool      `gorm:"column:enabled;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
