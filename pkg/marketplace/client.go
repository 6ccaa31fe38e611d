// Package marketplace is the REST client for the marketplace operator API.
// The payout worker uses it to list sellers so their wallet accounts can be
// provisioned and kept in sync.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sellerpay/payouts-backend/pkg/config"
	pkgerrors "github.com/sellerpay/payouts-backend/pkg/errors"
)

const (
	defaultTimeout              = 30 * time.Second
	defaultPageSize             = 100
	responseBodyReadLimit int64 = 2048
)

var (
	errBaseURLRequired = errors.New("marketplace base url is required")
	errAPIKeyRequired  = errors.New("marketplace api key is required")
)

// Client talks to the marketplace operator API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageSize overrides the seller listing page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// NewClient builds the marketplace client from configuration.
func NewClient(cfg config.MarketplaceConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		pageSize:   defaultPageSize,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Seller is a marketplace shop eligible for payouts.
type Seller struct {
	ID        int64
	Email     string
	ShopName  string
	FirstName string
	LastName  string
	Enabled   bool

	BankOwnerName string
	BankIBAN      string
	BankBIC       string
	BankName      string
}

// ListSellers returns sellers updated since the given time, paging through the
// marketplace API. A zero updatedSince lists every seller.
func (c *Client) ListSellers(ctx context.Context, updatedSince time.Time) ([]Seller, error) {
	if c == nil || c.httpClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}

	var sellers []Seller
	offset := 0
	for {
		page, total, err := c.listSellersPage(ctx, updatedSince, offset)
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, page...)
		offset += len(page)
		if len(page) == 0 || offset >= total {
			return sellers, nil
		}
	}
}

func (c *Client) listSellersPage(ctx context.Context, updatedSince time.Time, offset int) ([]Seller, int, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("offset", strconv.Itoa(offset))
	if !updatedSince.IsZero() {
		query.Set("updated_since", updatedSince.UTC().Format(time.RFC3339))
	}

	endpoint := fmt.Sprintf("%s/api/shops?%s", c.baseURL, query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build seller list request")
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute seller list request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		code := pkgerrors.CodeDependency
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			code = pkgerrors.CodeUnauthorized
		}
		return nil, 0, pkgerrors.Wrap(code, cause, "seller list request failed")
	}

	var apiResp struct {
		TotalCount int `json:"total_count"`
		Shops      []struct {
			ID      int64  `json:"shop_id"`
			Name    string `json:"shop_name"`
			Enabled bool   `json:"enabled"`
			Contact struct {
				Email     string `json:"email"`
				FirstName string `json:"first_name"`
				LastName  string `json:"last_name"`
			} `json:"contact_informations"`
			Payment struct {
				Owner string `json:"owner"`
				IBAN  string `json:"iban"`
				BIC   string `json:"bic"`
				Bank  string `json:"bank_name"`
			} `json:"payment_informations"`
		} `json:"shops"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode seller list response")
	}

	sellers := make([]Seller, 0, len(apiResp.Shops))
	for _, shop := range apiResp.Shops {
		sellers = append(sellers, Seller{
			ID:            shop.ID,
			Email:         shop.Contact.Email,
			ShopName:      shop.Name,
			FirstName:     shop.Contact.FirstName,
			LastName:      shop.Contact.LastName,
			Enabled:       shop.Enabled,
			BankOwnerName: shop.Payment.Owner,
			BankIBAN:      shop.Payment.IBAN,
			BankBIC:       shop.Payment.BIC,
			BankName:      shop.Payment.Bank,
		})
	}
	return sellers, apiResp.TotalCount, nil
}
