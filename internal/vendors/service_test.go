package vendors

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/sellerpay/payouts-backend/pkg/db/models"
	"github.com/sellerpay/payouts-backend/pkg/logger"
	"github.com/sellerpay/payouts-backend/pkg/marketplace"
	"github.com/sellerpay/payouts-backend/pkg/wallet"
)

type fakeRepo struct {
	vendors map[int64]*models.Vendor
	getErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{vendors: map[int64]*models.Vendor{}}
}

func (r *fakeRepo) WithTx(*gorm.DB) Repository { return r }

func (r *fakeRepo) GetBySellerID(_ context.Context, sellerID int64) (*models.Vendor, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	vendor, ok := r.vendors[sellerID]
	if !ok {
		return nil, nil
	}
	copied := *vendor
	return &copied, nil
}

func (r *fakeRepo) List(context.Context) ([]models.Vendor, error) {
	var out []models.Vendor
	for _, v := range r.vendors {
		out = append(out, *v)
	}
	return out, nil
}

func (r *fakeRepo) Upsert(_ context.Context, vendor *models.Vendor) error {
	copied := *vendor
	r.vendors[vendor.SellerID] = &copied
	return nil
}

type fakeLister struct {
	sellers []marketplace.Seller
	err     error
}

func (l *fakeLister) ListSellers(context.Context, time.Time) ([]marketplace.Seller, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.sellers, nil
}

type fakeWallet struct {
	created    []wallet.CreateAccountRequest
	registered []wallet.BankAccountDetails
	bankStatus string
	identified bool
	createErr  error
}

func (w *fakeWallet) CreateAccount(_ context.Context, req wallet.CreateAccountRequest) (string, string, error) {
	if w.createErr != nil {
		return "", "", w.createErr
	}
	w.created = append(w.created, req)
	return "acc-new", "space-1", nil
}

func (w *fakeWallet) IsIdentified(context.Context, string) (bool, error) {
	return w.identified, nil
}

func (w *fakeWallet) BankInfoStatus(context.Context, string) (string, error) {
	return w.bankStatus, nil
}

func (w *fakeWallet) RegisterBankAccount(_ context.Context, _ string, details wallet.BankAccountDetails) error {
	w.registered = append(w.registered, details)
	return nil
}

func newTestService(t *testing.T, repo Repository, lister sellerLister, w walletProvisioner) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Repo:        repo,
		Marketplace: lister,
		Wallet:      w,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSyncProvisionsNewSeller(t *testing.T) {
	repo := newFakeRepo()
	lister := &fakeLister{sellers: []marketplace.Seller{{
		ID:       42,
		Email:    "seller@example.com",
		ShopName: "Alpha",
		Enabled:  true,
		BankIBAN: "FR7612345",
	}}}
	w := &fakeWallet{bankStatus: "blank", identified: false}
	svc := newTestService(t, repo, lister, w)

	report, err := svc.Sync(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Provisioned != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(w.created) != 1 {
		t.Fatalf("expected 1 account creation, got %d", len(w.created))
	}
	if len(w.registered) != 1 || w.registered[0].IBAN != "FR7612345" {
		t.Fatalf("expected bank details registered, got %+v", w.registered)
	}
	vendor := repo.vendors[42]
	if vendor == nil || vendor.WalletAccountID != "acc-new" {
		t.Fatalf("vendor not stored: %+v", vendor)
	}
}

func TestSyncRefreshesExistingSeller(t *testing.T) {
	repo := newFakeRepo()
	repo.vendors[42] = &models.Vendor{
		SellerID:        42,
		Email:           "old@example.com",
		WalletAccountID: "acc-42",
		Identified:      false,
		Enabled:         true,
	}
	lister := &fakeLister{sellers: []marketplace.Seller{{
		ID:      42,
		Email:   "new@example.com",
		Enabled: false,
	}}}
	w := &fakeWallet{identified: true, bankStatus: "validated"}
	svc := newTestService(t, repo, lister, w)

	report, err := svc.Sync(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Refreshed != 1 || report.Provisioned != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(w.created) != 0 {
		t.Fatal("no account creation expected for existing vendor")
	}
	vendor := repo.vendors[42]
	if vendor.Email != "new@example.com" || vendor.Enabled || !vendor.Identified {
		t.Fatalf("vendor not refreshed: %+v", vendor)
	}
}

func TestSyncSkipsBankRegistrationWhenAlreadyValidated(t *testing.T) {
	repo := newFakeRepo()
	repo.vendors[7] = &models.Vendor{SellerID: 7, Email: "s@example.com", WalletAccountID: "acc-7"}
	lister := &fakeLister{sellers: []marketplace.Seller{{
		ID:       7,
		Email:    "s@example.com",
		BankIBAN: "FR7612345",
	}}}
	w := &fakeWallet{bankStatus: "validation_in_progress"}
	svc := newTestService(t, repo, lister, w)

	if _, err := svc.Sync(context.Background(), time.Time{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(w.registered) != 0 {
		t.Fatal("bank details must not be re-registered while validation is pending")
	}
}

func TestSyncIsolatesSellerFailures(t *testing.T) {
	repo := newFakeRepo()
	lister := &fakeLister{sellers: []marketplace.Seller{
		{ID: 1, Email: "a@example.com"},
		{ID: 2, Email: "b@example.com"},
	}}
	w := &fakeWallet{createErr: errors.New("provider down")}
	svc := newTestService(t, repo, lister, w)

	report, err := svc.Sync(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("per-seller failures must not abort the pass: %v", err)
	}
	if report.Failed != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.ItemErrors == nil {
		t.Fatal("expected item errors collected")
	}
}

func TestSyncAbortsWhenListingFails(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeLister{err: errors.New("marketplace down")}, &fakeWallet{})

	if _, err := svc.Sync(context.Background(), time.Time{}); err == nil {
		t.Fatal("expected sync to abort when listing fails")
	}
}

func TestSyncSkipsSellerWithoutEmail(t *testing.T) {
	repo := newFakeRepo()
	lister := &fakeLister{sellers: []marketplace.Seller{{ID: 5}}}
	w := &fakeWallet{}
	svc := newTestService(t, repo, lister, w)

	report, err := svc.Sync(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Failed != 0 || len(w.created) != 0 {
		t.Fatalf("seller without email should be skipped, report %+v", report)
	}
}
