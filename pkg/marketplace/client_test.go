package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sellerpay/payouts-backend/pkg/config"
	pkgerrors "github.com/sellerpay/payouts-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.MarketplaceConfig{
		BaseURL: server.URL,
		APIKey:  "mk-key",
	}, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestListSellersPagesThroughResults(t *testing.T) {
	pages := map[string][]map[string]any{
		"0": {
			{"shop_id": 1, "shop_name": "Alpha", "enabled": true,
				"contact_informations": map[string]string{"email": "alpha@example.com"},
				"payment_informations": map[string]string{"iban": "FR7612345"},
			},
			{"shop_id": 2, "shop_name": "Beta", "enabled": false,
				"contact_informations": map[string]string{"email": "beta@example.com"},
			},
		},
		"2": {
			{"shop_id": 3, "shop_name": "Gamma", "enabled": true,
				"contact_informations": map[string]string{"email": "gamma@example.com"},
			},
		},
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "mk-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.URL.Query().Get("updated_since") == "" {
			t.Error("expected updated_since filter")
		}
		shops := pages[r.URL.Query().Get("offset")]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_count": 3,
			"shops":       shops,
		})
	}), WithPageSize(2))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sellers, err := client.ListSellers(context.Background(), since)
	if err != nil {
		t.Fatalf("list sellers: %v", err)
	}
	if len(sellers) != 3 {
		t.Fatalf("expected 3 sellers, got %d", len(sellers))
	}
	if sellers[0].BankIBAN != "FR7612345" {
		t.Fatalf("expected bank details mapped, got %+v", sellers[0])
	}
	if sellers[1].Enabled {
		t.Fatal("expected second seller disabled")
	}
}

func TestListSellersUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))

	_, err := client.ListSellers(context.Background(), time.Time{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
