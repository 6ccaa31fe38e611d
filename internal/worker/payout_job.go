package worker

import (
	"context"
	"fmt"

	"github.com/sellerpay/payouts-backend/internal/payouts"
	"github.com/sellerpay/payouts-backend/pkg/logger"
)

type batchRunner interface {
	Run(ctx context.Context) (payouts.Report, error)
}

// PayoutJobParams configures the payout batch job.
type PayoutJobParams struct {
	Logger *logger.Logger
	Engine batchRunner
}

// NewPayoutJob wraps the payout engine as a scheduled job. Per-operation
// failures surface in the job result so the cycle is counted as failed, but
// the engine has already persisted every operation's outcome by then.
func NewPayoutJob(params PayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("payout engine required")
	}
	return &payoutJob{logg: params.Logger, engine: params.Engine}, nil
}

type payoutJob struct {
	logg   *logger.Logger
	engine batchRunner
}

func (j *payoutJob) Name() string { return "payout-run" }

func (j *payoutJob) Run(ctx context.Context) error {
	report, err := j.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("payout batch: %w", err)
	}
	if report.ItemErrors != nil {
		return fmt.Errorf("payout batch finished with failures: %w", report.ItemErrors)
	}
	return nil
}
