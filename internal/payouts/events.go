package payouts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sellerpay/payouts-backend/pkg/db/models"
	"github.com/sellerpay/payouts-backend/pkg/logger"
)

// Event types emitted around each gateway call. Consumers are observers only;
// payout state transitions never depend on a listener being present.
const (
	EventTransferStarted   = "payout.transfer.started"
	EventTransferCompleted = "payout.transfer.completed"
	EventWithdrawStarted   = "payout.withdraw.started"
	EventWithdrawCompleted = "payout.withdraw.completed"
)

// Notifier receives payout lifecycle events.
type Notifier interface {
	BeforeTransfer(ctx context.Context, op *models.Operation)
	AfterTransfer(ctx context.Context, op *models.Operation, transferRef string)
	BeforeWithdraw(ctx context.Context, op *models.Operation)
	AfterWithdraw(ctx context.Context, op *models.Operation, withdrawRef string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) BeforeTransfer(context.Context, *models.Operation)        {}
func (NopNotifier) AfterTransfer(context.Context, *models.Operation, string) {}
func (NopNotifier) BeforeWithdraw(context.Context, *models.Operation)        {}
func (NopNotifier) AfterWithdraw(context.Context, *models.Operation, string) {}

type publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

// PubSubNotifier publishes payout lifecycle events to the configured topic.
// Publish failures are logged and swallowed.
type PubSubNotifier struct {
	publisher publisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewPubSubNotifier builds a notifier over the given publisher.
func NewPubSubNotifier(pub publisher, logg *logger.Logger) *PubSubNotifier {
	return &PubSubNotifier{publisher: pub, logg: logg, now: time.Now}
}

type eventEnvelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type operationPayload struct {
	OperationID     string `json:"operation_id"`
	SellerID        *int64 `json:"seller_id,omitempty"`
	WalletAccountID string `json:"wallet_account_id,omitempty"`
	Amount          string `json:"amount"`
	Status          string `json:"status"`
	CycleDate       string `json:"cycle_date"`
	Reference       string `json:"reference,omitempty"`
}

func (n *PubSubNotifier) BeforeTransfer(ctx context.Context, op *models.Operation) {
	n.emit(ctx, EventTransferStarted, op, "")
}

func (n *PubSubNotifier) AfterTransfer(ctx context.Context, op *models.Operation, transferRef string) {
	n.emit(ctx, EventTransferCompleted, op, transferRef)
}

func (n *PubSubNotifier) BeforeWithdraw(ctx context.Context, op *models.Operation) {
	n.emit(ctx, EventWithdrawStarted, op, "")
}

func (n *PubSubNotifier) AfterWithdraw(ctx context.Context, op *models.Operation, withdrawRef string) {
	n.emit(ctx, EventWithdrawCompleted, op, withdrawRef)
}

func (n *PubSubNotifier) emit(ctx context.Context, eventType string, op *models.Operation, ref string) {
	if n == nil || n.publisher == nil {
		return
	}
	payload, err := json.Marshal(operationPayload{
		OperationID:     op.ID.String(),
		SellerID:        op.SellerID,
		WalletAccountID: op.WalletAccountID,
		Amount:          op.Amount.StringFixed(2),
		Status:          op.Status.String(),
		CycleDate:       op.CycleDate.Format("2006-01-02"),
		Reference:       ref,
	})
	if err != nil {
		n.logError(ctx, eventType, err)
		return
	}
	envelope, err := json.Marshal(eventEnvelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: n.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		n.logError(ctx, eventType, err)
		return
	}
	attrs := map[string]string{"event_type": eventType}
	if err := n.publisher.Publish(ctx, envelope, attrs); err != nil {
		n.logError(ctx, eventType, err)
	}
}

func (n *PubSubNotifier) logError(ctx context.Context, eventType string, err error) {
	if n.logg == nil {
		return
	}
	logCtx := n.logg.WithField(ctx, "event_type", eventType)
	n.logg.Error(logCtx, "publishing payout event failed", err)
}
