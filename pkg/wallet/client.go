// Package wallet is the REST client for the payment provider that hosts
// seller wallet accounts. Payouts move money in two steps: a transfer from
// the platform's technical account into a seller wallet, then a withdrawal
// from that wallet to the seller's registered bank account.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellerpay/payouts-backend/pkg/config"
	pkgerrors "github.com/sellerpay/payouts-backend/pkg/errors"
)

const (
	defaultTimeout              = 30 * time.Second
	responseBodyReadLimit int64 = 2048
)

var (
	errBaseURLRequired = errors.New("wallet base url is required")
	errAPIKeyRequired  = errors.New("wallet api key is required")
)

// Client talks to the wallet provider's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	entity     string
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

// NewClient builds the wallet client from configuration.
func NewClient(cfg config.WalletConfig, opts ...Option) (*Client, error) {
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
		entity:     strings.TrimSpace(cfg.Entity),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Account is the provider's view of a wallet account.
type Account struct {
	ID         string
	Email      string
	Available  bool
	Identified bool
	SpaceID    string
}

// BankInfoStatus values returned by the provider, normalized to lowercase.
const (
	BankInfoBlank                = "blank"
	BankInfoMissing              = "missing"
	BankInfoValidationInProgress = "validation_in_progress"
	BankInfoValidated            = "validated"
)

// GetAccount fetches the wallet account, including availability and
// identification state.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(accountID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet account id is required")
	}

	var apiResp struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		Available  bool   `json:"available"`
		Identified bool   `json:"identified"`
		SpaceID    string `json:"space_id"`
	}
	if err := c.do(ctx, http.MethodGet, c.accountPath(id, ""), nil, &apiResp); err != nil {
		return nil, err
	}
	return &Account{
		ID:         apiResp.ID,
		Email:      apiResp.Email,
		Available:  apiResp.Available,
		Identified: apiResp.Identified,
		SpaceID:    apiResp.SpaceID,
	}, nil
}

// IsAccountAvailable reports whether the wallet account exists and accepts
// money movements. A provider 404 maps to (false, nil) rather than an error.
func (c *Client) IsAccountAvailable(ctx context.Context, accountID string) (bool, error) {
	account, err := c.GetAccount(ctx, accountID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.Available, nil
}

// IsIdentified reports whether the account passed the provider's KYC checks.
func (c *Client) IsIdentified(ctx context.Context, accountID string) (bool, error) {
	account, err := c.GetAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return account.Identified, nil
}

// BankInfoStatus returns the provider's bank account verification status for
// the wallet account, normalized to lowercase.
func (c *Client) BankInfoStatus(ctx context.Context, accountID string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	id := strings.TrimSpace(accountID)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "wallet account id is required")
	}

	var apiResp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, c.accountPath(id, "bank-info/status"), nil, &apiResp); err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(apiResp.Status)), nil
}

// GetBalance returns the current wallet balance for the account.
func (c *Client) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if err := c.ready(); err != nil {
		return decimal.Zero, err
	}
	id := strings.TrimSpace(accountID)
	if id == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "wallet account id is required")
	}

	var apiResp struct {
		Balance  string `json:"balance"`
		Currency string `json:"currency"`
	}
	if err := c.do(ctx, http.MethodGet, c.accountPath(id, "balance"), nil, &apiResp); err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(apiResp.Balance))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse wallet balance")
	}
	return balance, nil
}

// TransferRequest moves money from the technical account into a wallet.
type TransferRequest struct {
	RecipientAccountID string
	Amount             decimal.Decimal
	PublicLabel        string
	PrivateLabel       string
}

// Transfer executes a wallet-to-wallet transfer and returns the provider's
// transfer reference.
func (c *Client) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.RecipientAccountID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transfer recipient account id is required")
	}
	if !req.Amount.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be positive")
	}

	payload := map[string]any{
		"recipient_account_id": strings.TrimSpace(req.RecipientAccountID),
		"amount":               req.Amount.StringFixed(2),
		"public_label":         req.PublicLabel,
		"private_label":        req.PrivateLabel,
	}
	if c.entity != "" {
		payload["entity"] = c.entity
	}

	var apiResp struct {
		TransferID string `json:"transfer_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", payload, &apiResp); err != nil {
		return "", err
	}
	if strings.TrimSpace(apiResp.TransferID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "wallet transfer response missing transfer id")
	}
	return apiResp.TransferID, nil
}

// WithdrawRequest moves money from a wallet to its registered bank account.
type WithdrawRequest struct {
	AccountID string
	Amount    decimal.Decimal
	Label     string
}

// Withdraw requests a bank withdrawal from the wallet and returns the
// provider's withdrawal reference.
func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	id := strings.TrimSpace(req.AccountID)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "withdraw account id is required")
	}
	if !req.Amount.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "withdraw amount must be positive")
	}

	payload := map[string]any{
		"amount": req.Amount.StringFixed(2),
		"label":  req.Label,
	}

	var apiResp struct {
		WithdrawID string `json:"withdraw_id"`
	}
	if err := c.do(ctx, http.MethodPost, c.accountPath(id, "withdrawals"), payload, &apiResp); err != nil {
		return "", err
	}
	if strings.TrimSpace(apiResp.WithdrawID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "wallet withdraw response missing withdraw id")
	}
	return apiResp.WithdrawID, nil
}

// CreateAccountRequest provisions a new wallet account for a seller.
type CreateAccountRequest struct {
	Email     string
	FirstName string
	LastName  string
	Company   string
	Locale    string
	Timezone  string
}

// CreateAccount provisions a wallet account and returns its provider id and
// space id.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (accountID, spaceID string, err error) {
	if err := c.ready(); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(req.Email) == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "account email is required")
	}

	payload := map[string]any{
		"email":      strings.TrimSpace(req.Email),
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"company":    req.Company,
		"locale":     req.Locale,
		"timezone":   req.Timezone,
	}
	if c.entity != "" {
		payload["entity"] = c.entity
	}

	var apiResp struct {
		ID      string `json:"id"`
		SpaceID string `json:"space_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", payload, &apiResp); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(apiResp.ID) == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeDependency, "wallet create account response missing id")
	}
	return apiResp.ID, apiResp.SpaceID, nil
}

// BankAccountDetails carries the bank coordinates registered against a wallet.
type BankAccountDetails struct {
	OwnerName string
	IBAN      string
	BIC       string
	Bank      string
}

// RegisterBankAccount submits the seller's bank coordinates to the provider
// for validation.
func (c *Client) RegisterBankAccount(ctx context.Context, accountID string, details BankAccountDetails) error {
	if err := c.ready(); err != nil {
		return err
	}
	id := strings.TrimSpace(accountID)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet account id is required")
	}
	if strings.TrimSpace(details.IBAN) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "bank account iban is required")
	}

	payload := map[string]any{
		"owner_name": details.OwnerName,
		"iban":       details.IBAN,
		"bic":        details.BIC,
		"bank":       details.Bank,
	}
	return c.do(ctx, http.MethodPost, c.accountPath(id, "bank-info"), payload, nil)
}

func (c *Client) ready() error {
	if c == nil || c.httpClient == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "wallet client not configured")
	}
	return nil
}

func (c *Client) accountPath(accountID, suffix string) string {
	path := fmt.Sprintf("/v1/accounts/%s", url.PathEscape(accountID))
	if suffix != "" {
		path = path + "/" + suffix
	}
	return path
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal wallet request")
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build wallet request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute wallet request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return pkgerrors.Wrap(codeForStatus(resp.StatusCode), cause, "wallet request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode wallet response")
	}
	return nil
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}
