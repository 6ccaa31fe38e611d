package vendors

import (
	"context"

	"github.com/sellerpay/payouts-backend/pkg/config"
)

// Account is the read-only view of a wallet identity handed to the payout
// engine. A nil SellerID marks the platform operator's own account.
type Account struct {
	SellerID        *int64
	Email           string
	WalletAccountID string
	WalletSpaceID   string
	Identified      bool
}

// Directory resolves seller ids to wallet accounts. The operator's account is
// fixed configuration, never a database row.
type Directory struct {
	repo     Repository
	operator Account
}

// NewDirectory builds a directory over the vendor store with the operator
// account taken from configuration.
func NewDirectory(repo Repository, operator config.OperatorConfig) *Directory {
	return &Directory{
		repo: repo,
		operator: Account{
			Email:           operator.Email,
			WalletAccountID: operator.WalletAccountID,
			WalletSpaceID:   operator.WalletSpaceID,
			Identified:      true,
		},
	}
}

// Operator returns the platform operator's account.
func (d *Directory) Operator() Account {
	return d.operator
}

// FindBySellerID resolves a seller to its provisioned wallet account. Returns
// nil when the seller is unknown or has no wallet account yet.
func (d *Directory) FindBySellerID(ctx context.Context, sellerID int64) (*Account, error) {
	vendor, err := d.repo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if vendor == nil || vendor.WalletAccountID == "" {
		return nil, nil
	}
	id := vendor.SellerID
	return &Account{
		SellerID:        &id,
		Email:           vendor.Email,
		WalletAccountID: vendor.WalletAccountID,
		WalletSpaceID:   vendor.WalletSpaceID,
		Identified:      vendor.Identified,
	}, nil
}
