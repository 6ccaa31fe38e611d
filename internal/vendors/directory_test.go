package vendors

import (
	"context"
	"testing"

	"github.com/sellerpay/payouts-backend/pkg/config"
	"github.com/sellerpay/payouts-backend/pkg/db/models"
)

func TestDirectoryOperatorFromConfig(t *testing.T) {
	directory := NewDirectory(newFakeRepo(), config.OperatorConfig{
		WalletAccountID: "acc-op",
		WalletSpaceID:   "space-op",
		Email:           "ops@example.com",
	})

	operator := directory.Operator()
	if operator.SellerID != nil {
		t.Fatal("operator account must not carry a seller id")
	}
	if operator.WalletAccountID != "acc-op" || !operator.Identified {
		t.Fatalf("unexpected operator account %+v", operator)
	}
}

func TestDirectoryFindBySellerID(t *testing.T) {
	repo := newFakeRepo()
	repo.vendors[42] = &models.Vendor{
		SellerID:        42,
		Email:           "seller@example.com",
		WalletAccountID: "acc-42",
		Identified:      true,
	}
	directory := NewDirectory(repo, config.OperatorConfig{WalletAccountID: "acc-op"})

	account, err := directory.FindBySellerID(context.Background(), 42)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if account == nil || account.WalletAccountID != "acc-42" {
		t.Fatalf("unexpected account %+v", account)
	}
	if account.SellerID == nil || *account.SellerID != 42 {
		t.Fatalf("seller id not carried: %+v", account)
	}
}

func TestDirectoryUnknownSeller(t *testing.T) {
	directory := NewDirectory(newFakeRepo(), config.OperatorConfig{WalletAccountID: "acc-op"})

	account, err := directory.FindBySellerID(context.Background(), 99)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if account != nil {
		t.Fatalf("expected nil account, got %+v", account)
	}
}

func TestDirectoryVendorWithoutWalletAccount(t *testing.T) {
	repo := newFakeRepo()
	repo.vendors[7] = &models.Vendor{SellerID: 7, Email: "s@example.com"}
	directory := NewDirectory(repo, config.OperatorConfig{WalletAccountID: "acc-op"})

	account, err := directory.FindBySellerID(context.Background(), 7)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if account != nil {
		t.Fatal("vendor without a wallet account must not resolve")
	}
}
