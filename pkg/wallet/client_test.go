package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sellerpay/payouts-backend/pkg/config"
	pkgerrors "github.com/sellerpay/payouts-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.WalletConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(config.WalletConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error without base url")
	}
	if _, err := NewClient(config.WalletConfig{BaseURL: "http://wallet"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGetAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/acc-42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "acc-42",
			"email":      "seller@example.com",
			"available":  true,
			"identified": false,
		})
	}))

	account, err := client.GetAccount(context.Background(), "acc-42")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !account.Available || account.Identified {
		t.Fatalf("unexpected account state %+v", account)
	}
}

func TestIsAccountAvailableMapsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such account"}`, http.StatusNotFound)
	}))

	available, err := client.IsAccountAvailable(context.Background(), "acc-missing")
	if err != nil {
		t.Fatalf("expected 404 to map to unavailable, got error %v", err)
	}
	if available {
		t.Fatal("expected account to be unavailable")
	}
}

func TestBankInfoStatusNormalized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/acc-42/bank-info/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": " VALIDATED "})
	}))

	status, err := client.BankInfoStatus(context.Background(), "acc-42")
	if err != nil {
		t.Fatalf("bank info status: %v", err)
	}
	if status != BankInfoValidated {
		t.Fatalf("expected validated, got %q", status)
	}
}

func TestGetBalanceParsesDecimal(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"balance": "123.45", "currency": "EUR"})
	}))

	balance, err := client.GetBalance(context.Background(), "acc-42")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("unexpected balance %s", balance)
	}
}

func TestTransferSendsAmountAndLabels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("missing idempotency key")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["amount"] != "99.90" {
			t.Errorf("unexpected amount %v", body["amount"])
		}
		if body["public_label"] != "Payout 2026-08-31 seller 7" {
			t.Errorf("unexpected public label %v", body["public_label"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"transfer_id": "tr-1"})
	}))

	ref, err := client.Transfer(context.Background(), TransferRequest{
		RecipientAccountID: "acc-42",
		Amount:             decimal.RequireFromString("99.9"),
		PublicLabel:        "Payout 2026-08-31 seller 7",
		PrivateLabel:       "op:7:99.90",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if ref != "tr-1" {
		t.Fatalf("unexpected transfer ref %q", ref)
	}
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))

	_, err := client.Transfer(context.Background(), TransferRequest{
		RecipientAccountID: "acc-42",
		Amount:             decimal.Zero,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/acc-42/withdrawals" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"withdraw_id": "wd-9"})
	}))

	ref, err := client.Withdraw(context.Background(), WithdrawRequest{
		AccountID: "acc-42",
		Amount:    decimal.RequireFromString("10.00"),
		Label:     "Withdraw 2026-08-31",
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if ref != "wd-9" {
		t.Fatalf("unexpected withdraw ref %q", ref)
	}
}

func TestErrorMappingByStatus(t *testing.T) {
	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadGateway, pkgerrors.CodeDependency},
	}

	for _, tc := range cases {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		_, err := client.GetBalance(context.Background(), "acc-42")
		if !pkgerrors.HasCode(err, tc.code) {
			t.Errorf("status %d: expected code %s, got %v", tc.status, tc.code, err)
		}
	}
}

func TestCreateAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/accounts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "acc-new", "space_id": "space-1"})
	}))

	accountID, spaceID, err := client.CreateAccount(context.Background(), CreateAccountRequest{
		Email: "new-seller@example.com",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if accountID != "acc-new" || spaceID != "space-1" {
		t.Fatalf("unexpected ids %q %q", accountID, spaceID)
	}
}

func TestRegisterBankAccountRequiresIBAN(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))

	err := client.RegisterBankAccount(context.Background(), "acc-42", BankAccountDetails{OwnerName: "A Seller"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
