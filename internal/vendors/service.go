// Package vendors keeps the local vendor store in step with the marketplace:
// each active seller gets a wallet account at the payment provider, with its
// bank details registered for validation. The payout engine resolves
// operations against this store.
package vendors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/sellerpay/payouts-backend/pkg/db/models"
	"github.com/sellerpay/payouts-backend/pkg/enums"
	"github.com/sellerpay/payouts-backend/pkg/logger"
	"github.com/sellerpay/payouts-backend/pkg/marketplace"
	"github.com/sellerpay/payouts-backend/pkg/wallet"
)

type sellerLister interface {
	ListSellers(ctx context.Context, updatedSince time.Time) ([]marketplace.Seller, error)
}

type walletProvisioner interface {
	CreateAccount(ctx context.Context, req wallet.CreateAccountRequest) (accountID, spaceID string, err error)
	IsIdentified(ctx context.Context, accountID string) (bool, error)
	BankInfoStatus(ctx context.Context, accountID string) (string, error)
	RegisterBankAccount(ctx context.Context, accountID string, details wallet.BankAccountDetails) error
}

// ServiceParams configures the vendor sync service.
type ServiceParams struct {
	Logger      *logger.Logger
	Repo        Repository
	Marketplace sellerLister
	Wallet      walletProvisioner
	Locale      string
	Timezone    string
}

// Service provisions and refreshes vendor wallet accounts.
type Service struct {
	logg        *logger.Logger
	repo        Repository
	marketplace sellerLister
	wallet      walletProvisioner
	locale      string
	timezone    string
}

// NewService validates dependencies and builds the sync service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if params.Marketplace == nil {
		return nil, fmt.Errorf("marketplace client required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet client required")
	}
	return &Service{
		logg:        params.Logger,
		repo:        params.Repo,
		marketplace: params.Marketplace,
		wallet:      params.Wallet,
		locale:      params.Locale,
		timezone:    params.Timezone,
	}, nil
}

// SyncReport aggregates the outcome of one sync pass.
type SyncReport struct {
	Listed      int
	Provisioned int
	Refreshed   int
	Failed      int
	ItemErrors  error
}

// Sync lists sellers updated since the given time and reconciles each one
// against the vendor store and the wallet provider. Per-seller failures are
// collected and never abort the pass; only a failed marketplace listing is
// fatal.
func (s *Service) Sync(ctx context.Context, updatedSince time.Time) (SyncReport, error) {
	var report SyncReport

	sellers, err := s.marketplace.ListSellers(ctx, updatedSince)
	if err != nil {
		return report, fmt.Errorf("listing marketplace sellers: %w", err)
	}
	report.Listed = len(sellers)

	for i := range sellers {
		provisioned, err := s.syncSeller(ctx, &sellers[i])
		if err != nil {
			report.Failed++
			report.ItemErrors = multierr.Append(report.ItemErrors, err)
			continue
		}
		if provisioned {
			report.Provisioned++
		} else {
			report.Refreshed++
		}
	}

	reportCtx := s.logg.WithFields(ctx, map[string]any{
		"listed":      report.Listed,
		"provisioned": report.Provisioned,
		"refreshed":   report.Refreshed,
		"failed":      report.Failed,
	})
	s.logg.Info(reportCtx, "vendor sync complete")
	return report, nil
}

func (s *Service) syncSeller(ctx context.Context, seller *marketplace.Seller) (provisioned bool, err error) {
	logCtx := s.logg.WithSellerID(ctx, seller.ID)

	if strings.TrimSpace(seller.Email) == "" {
		s.logg.Warn(logCtx, "seller has no contact email; skipping")
		return false, nil
	}

	vendor, err := s.repo.GetBySellerID(logCtx, seller.ID)
	if err != nil {
		return false, fmt.Errorf("seller %d: loading vendor: %w", seller.ID, err)
	}

	if vendor == nil || vendor.WalletAccountID == "" {
		accountID, spaceID, err := s.wallet.CreateAccount(logCtx, wallet.CreateAccountRequest{
			Email:     seller.Email,
			FirstName: seller.FirstName,
			LastName:  seller.LastName,
			Company:   seller.ShopName,
			Locale:    s.locale,
			Timezone:  s.timezone,
		})
		if err != nil {
			return false, fmt.Errorf("seller %d: creating wallet account: %w", seller.ID, err)
		}
		vendor = &models.Vendor{
			SellerID:        seller.ID,
			Email:           seller.Email,
			WalletAccountID: accountID,
			WalletSpaceID:   spaceID,
			Enabled:         seller.Enabled,
		}
		if err := s.repo.Upsert(logCtx, vendor); err != nil {
			return false, fmt.Errorf("seller %d: storing vendor: %w", seller.ID, err)
		}
		provisioned = true
		s.logg.Info(s.logg.WithField(logCtx, "wallet_account_id", accountID), "wallet account provisioned")
	}

	if err := s.maybeRegisterBankAccount(logCtx, vendor, seller); err != nil {
		return provisioned, err
	}

	identified, err := s.wallet.IsIdentified(logCtx, vendor.WalletAccountID)
	if err != nil {
		return provisioned, fmt.Errorf("seller %d: checking identification: %w", seller.ID, err)
	}

	vendor.Email = seller.Email
	vendor.Enabled = seller.Enabled
	vendor.Identified = identified
	vendor.UpdatedAt = time.Now()
	if err := s.repo.Upsert(logCtx, vendor); err != nil {
		return provisioned, fmt.Errorf("seller %d: refreshing vendor: %w", seller.ID, err)
	}
	return provisioned, nil
}

// maybeRegisterBankAccount submits bank details when the marketplace has them
// and the provider does not.
func (s *Service) maybeRegisterBankAccount(ctx context.Context, vendor *models.Vendor, seller *marketplace.Seller) error {
	if strings.TrimSpace(seller.BankIBAN) == "" {
		return nil
	}
	status, err := s.wallet.BankInfoStatus(ctx, vendor.WalletAccountID)
	if err != nil {
		return fmt.Errorf("seller %d: checking bank info status: %w", seller.ID, err)
	}
	switch enums.NormalizeBankInfoStatus(status) {
	case enums.BankInfoStatusBlank, enums.BankInfoStatusMissing:
	default:
		return nil
	}
	if err := s.wallet.RegisterBankAccount(ctx, vendor.WalletAccountID, wallet.BankAccountDetails{
		OwnerName: seller.BankOwnerName,
		IBAN:      seller.BankIBAN,
		BIC:       seller.BankBIC,
		Bank:      seller.BankName,
	}); err != nil {
		return fmt.Errorf("seller %d: registering bank account: %w", seller.ID, err)
	}
	s.logg.Info(ctx, "bank account submitted for validation")
	return nil
}
