// Package payouts drives requested seller payouts through a two-phase state
// machine: transfer money from the platform's technical wallet into the
// seller's wallet, then withdraw it from that wallet to the seller's bank
// account. Each phase is retryable and each operation is processed in
// isolation, so one bad record never blocks a batch.
package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/sellerpay/payouts-backend/internal/vendors"
	"github.com/sellerpay/payouts-backend/pkg/db/models"
	"github.com/sellerpay/payouts-backend/pkg/enums"
	pkgerrors "github.com/sellerpay/payouts-backend/pkg/errors"
	"github.com/sellerpay/payouts-backend/pkg/logger"
	"github.com/sellerpay/payouts-backend/pkg/metrics"
	"github.com/sellerpay/payouts-backend/pkg/wallet"
)

const defaultRetryWindow = 24 * time.Hour

// Store is the persistence surface the engine needs.
type Store interface {
	ListByStatus(ctx context.Context, status enums.OperationStatus) ([]models.Operation, error)
	ListByStatusUpdatedBefore(ctx context.Context, status enums.OperationStatus, cutoff time.Time) ([]models.Operation, error)
	Save(ctx context.Context, op *models.Operation) error
}

// Directory resolves operations to wallet accounts.
type Directory interface {
	FindBySellerID(ctx context.Context, sellerID int64) (*vendors.Account, error)
	Operator() vendors.Account
}

// Gateway is the wallet-provider surface the engine needs.
type Gateway interface {
	IsAccountAvailable(ctx context.Context, accountID string) (bool, error)
	IsIdentified(ctx context.Context, accountID string) (bool, error)
	BankInfoStatus(ctx context.Context, accountID string) (string, error)
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Transfer(ctx context.Context, req wallet.TransferRequest) (string, error)
	Withdraw(ctx context.Context, req wallet.WithdrawRequest) (string, error)
}

// EngineParams configures the payout engine.
type EngineParams struct {
	Logger    *logger.Logger
	Store     Store
	Directory Directory
	Gateway   Gateway
	Labels    *LabelSet
	Notifier  Notifier
	Metrics   *metrics.JobMetrics

	// RetryWindow is the minimum age of a failed operation before it is
	// selected again. Defaults to one day.
	RetryWindow time.Duration
	Now         func() time.Time
}

// Engine selects pending operations and drives them through the transfer and
// withdraw phases.
type Engine struct {
	logg        *logger.Logger
	store       Store
	directory   Directory
	gateway     Gateway
	labels      *LabelSet
	notifier    Notifier
	metrics     *metrics.JobMetrics
	retryWindow time.Duration
	now         func() time.Time
}

// NewEngine validates dependencies and builds the engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("operation store required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("vendor directory required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("wallet gateway required")
	}
	if params.Labels == nil {
		return nil, fmt.Errorf("label set required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	retryWindow := params.RetryWindow
	if retryWindow <= 0 {
		retryWindow = defaultRetryWindow
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		logg:        params.Logger,
		store:       params.Store,
		directory:   params.Directory,
		gateway:     params.Gateway,
		labels:      params.Labels,
		notifier:    notifier,
		metrics:     params.Metrics,
		retryWindow: retryWindow,
		now:         now,
	}, nil
}

// Report aggregates the outcome of one batch run. ItemErrors combines every
// per-operation failure; the run itself still counts as complete.
type Report struct {
	TransferCandidates int
	TransferSucceeded  int
	TransferFailed     int
	WithdrawCandidates int
	WithdrawSucceeded  int
	WithdrawFailed     int
	ItemErrors         error
}

// Run executes one batch: the transfer pass over every transfer-eligible
// operation, then the withdraw pass over every withdraw-eligible operation.
// Per-operation failures are collected in the report; the returned error is
// non-nil only when a selection query fails, in which case no mutation has
// happened for that pass.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	var report Report
	cutoff := e.now().Add(-e.retryWindow)

	transferable, err := e.selectEligible(ctx, enums.OperationStatusCreated, enums.OperationStatusTransferFailed, cutoff)
	if err != nil {
		return report, fmt.Errorf("selecting transferable operations: %w", err)
	}
	report.TransferCandidates = len(transferable)
	for i := range transferable {
		if err := e.processTransfer(ctx, &transferable[i]); err != nil {
			report.TransferFailed++
			report.ItemErrors = multierr.Append(report.ItemErrors, err)
			e.metrics.IncOperation("transfer", "failure")
			continue
		}
		report.TransferSucceeded++
		e.metrics.IncOperation("transfer", "success")
	}

	withdrawable, err := e.selectEligible(ctx, enums.OperationStatusTransferSuccess, enums.OperationStatusWithdrawFailed, cutoff)
	if err != nil {
		return report, fmt.Errorf("selecting withdrawable operations: %w", err)
	}
	report.WithdrawCandidates = len(withdrawable)
	for i := range withdrawable {
		if err := e.processWithdraw(ctx, &withdrawable[i]); err != nil {
			report.WithdrawFailed++
			report.ItemErrors = multierr.Append(report.ItemErrors, err)
			e.metrics.IncOperation("withdraw", "failure")
			continue
		}
		report.WithdrawSucceeded++
		e.metrics.IncOperation("withdraw", "success")
	}

	reportCtx := e.logg.WithFields(ctx, map[string]any{
		"transfer_candidates": report.TransferCandidates,
		"transfer_succeeded":  report.TransferSucceeded,
		"transfer_failed":     report.TransferFailed,
		"withdraw_candidates": report.WithdrawCandidates,
		"withdraw_succeeded":  report.WithdrawSucceeded,
		"withdraw_failed":     report.WithdrawFailed,
	})
	e.logg.Info(reportCtx, "payout batch complete")
	return report, nil
}

// selectEligible returns the union of operations in the fresh status and
// operations in the retry status older than the cutoff, deduplicated by id.
func (e *Engine) selectEligible(ctx context.Context, fresh, retry enums.OperationStatus, cutoff time.Time) ([]models.Operation, error) {
	pending, err := e.store.ListByStatus(ctx, fresh)
	if err != nil {
		return nil, err
	}
	retries, err := e.store.ListByStatusUpdatedBefore(ctx, retry, cutoff)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(pending)+len(retries))
	eligible := make([]models.Operation, 0, len(pending)+len(retries))
	for _, op := range append(pending, retries...) {
		key := op.ID.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		eligible = append(eligible, op)
	}
	return eligible, nil
}

func (e *Engine) processTransfer(ctx context.Context, op *models.Operation) error {
	logCtx := e.operationContext(ctx, op)

	account, err := e.resolveAccount(logCtx, op)
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusTransferFailed, err)
	}
	op.WalletAccountID = account.WalletAccountID

	amount := op.Amount.Round(2)
	public, private, err := e.labels.TransferLabels(op, e.now())
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusTransferFailed, err)
	}

	e.notifier.BeforeTransfer(logCtx, op)
	ref, err := e.gateway.Transfer(logCtx, wallet.TransferRequest{
		RecipientAccountID: account.WalletAccountID,
		Amount:             amount,
		PublicLabel:        public,
		PrivateLabel:       private,
	})
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusTransferFailed, err)
	}

	op.Status = enums.OperationStatusTransferSuccess
	op.TransferRef = ref
	op.UpdatedAt = e.now()
	if err := e.store.Save(logCtx, op); err != nil {
		return fmt.Errorf("saving operation %s after transfer: %w", op.ID, err)
	}
	e.notifier.AfterTransfer(logCtx, op, ref)
	e.logg.Info(e.logg.WithField(logCtx, "transfer_ref", ref), "transfer succeeded")
	return nil
}

func (e *Engine) processWithdraw(ctx context.Context, op *models.Operation) error {
	logCtx := e.operationContext(ctx, op)

	account, err := e.resolveAccount(logCtx, op)
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed, err)
	}
	op.WalletAccountID = account.WalletAccountID

	identified, err := e.gateway.IsIdentified(logCtx, account.WalletAccountID)
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking account identification"))
	}
	if !identified {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
			&UnidentifiedAccountError{SellerID: op.SellerID})
	}

	bankStatus, err := e.gateway.BankInfoStatus(logCtx, account.WalletAccountID)
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking bank info status"))
	}
	if !enums.NormalizeBankInfoStatus(bankStatus).Validated() {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
			&UnconfirmedBankAccountError{SellerID: op.SellerID, Status: bankStatus})
	}

	amount := op.Amount.Round(2)
	balance, err := e.gateway.GetBalance(logCtx, account.WalletAccountID)
	if err != nil {
		// a failed balance read is a gateway fault, never treated as zero
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading wallet balance"))
	}
	balance = balance.Round(2)
	if balance.LessThan(amount) {
		if !op.IsOperator() {
			return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
				&InsufficientBalanceError{SellerID: op.SellerID, Requested: amount, Available: balance})
		}
		// partial withdraw is acceptable for the operator's own float
		amount = balance
	}
	if !amount.IsPositive() {
		// an empty wallet leaves nothing to withdraw; skip the gateway call
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed,
			&InsufficientBalanceError{SellerID: op.SellerID, Requested: op.Amount.Round(2), Available: balance})
	}

	label, err := e.labels.WithdrawLabel(op, e.now())
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed, err)
	}

	e.notifier.BeforeWithdraw(logCtx, op)
	ref, err := e.gateway.Withdraw(logCtx, wallet.WithdrawRequest{
		AccountID: account.WalletAccountID,
		Amount:    amount,
		Label:     label,
	})
	if err != nil {
		return e.failOperation(logCtx, op, enums.OperationStatusWithdrawFailed, err)
	}

	op.Status = enums.OperationStatusWithdrawRequested
	op.WithdrawRef = ref
	op.WithdrawnAmount = decimal.NewNullDecimal(amount)
	op.UpdatedAt = e.now()
	if err := e.store.Save(logCtx, op); err != nil {
		return fmt.Errorf("saving operation %s after withdraw: %w", op.ID, err)
	}
	e.notifier.AfterWithdraw(logCtx, op, ref)
	e.logg.Info(e.logg.WithField(logCtx, "withdraw_ref", ref), "withdraw requested")
	return nil
}

// resolveAccount maps the operation to a wallet account and verifies the
// account is provisioned at the provider.
func (e *Engine) resolveAccount(ctx context.Context, op *models.Operation) (vendors.Account, error) {
	var account vendors.Account
	if op.IsOperator() {
		account = e.directory.Operator()
	} else {
		found, err := e.directory.FindBySellerID(ctx, *op.SellerID)
		if err != nil {
			return vendors.Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving vendor account")
		}
		if found == nil {
			return vendors.Account{}, &AccountNotFoundError{SellerID: op.SellerID}
		}
		account = *found
	}

	available, err := e.gateway.IsAccountAvailable(ctx, account.WalletAccountID)
	if err != nil {
		return vendors.Account{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking account availability")
	}
	if !available {
		return vendors.Account{}, &AccountNotFoundError{SellerID: op.SellerID}
	}
	return account, nil
}

// failOperation persists the failed status exactly once and re-signals the
// original failure to the batch loop.
func (e *Engine) failOperation(ctx context.Context, op *models.Operation, status enums.OperationStatus, cause error) error {
	op.Status = status
	op.UpdatedAt = e.now()
	if saveErr := e.store.Save(ctx, op); saveErr != nil {
		cause = multierr.Append(cause, fmt.Errorf("saving failed operation %s: %w", op.ID, saveErr))
	}
	if IsBusinessFailure(cause) {
		e.logg.Warn(e.logg.WithField(ctx, "reason", cause.Error()), "operation failed precondition")
	} else {
		e.logg.Error(ctx, "operation failed", cause)
	}
	return fmt.Errorf("operation %s: %w", op.ID, cause)
}

func (e *Engine) operationContext(ctx context.Context, op *models.Operation) context.Context {
	logCtx := e.logg.WithOperationID(ctx, op.ID.String())
	if op.SellerID != nil {
		logCtx = e.logg.WithSellerID(logCtx, *op.SellerID)
	}
	return logCtx
}
