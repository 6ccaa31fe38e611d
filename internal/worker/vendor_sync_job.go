package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sellerpay/payouts-backend/internal/vendors"
	"github.com/sellerpay/payouts-backend/pkg/logger"
)

type vendorSyncer interface {
	Sync(ctx context.Context, updatedSince time.Time) (vendors.SyncReport, error)
}

// VendorSyncJobParams configures the vendor sync job.
type VendorSyncJobParams struct {
	Logger  *logger.Logger
	Service vendorSyncer
	Now     func() time.Time
}

// NewVendorSyncJob wraps the vendor sync service as a scheduled job. The
// first pass lists every seller; later passes only list sellers updated since
// the last successful pass.
func NewVendorSyncJob(params VendorSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("vendor sync service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &vendorSyncJob{logg: params.Logger, service: params.Service, now: now}, nil
}

type vendorSyncJob struct {
	logg     *logger.Logger
	service  vendorSyncer
	now      func() time.Time
	lastSync time.Time
}

func (j *vendorSyncJob) Name() string { return "vendor-sync" }

func (j *vendorSyncJob) Run(ctx context.Context) error {
	startedAt := j.now()
	report, err := j.service.Sync(ctx, j.lastSync)
	if err != nil {
		return fmt.Errorf("vendor sync: %w", err)
	}
	if report.ItemErrors != nil {
		// keep the watermark so failed sellers are listed again next cycle;
		// re-syncing the already-handled ones is idempotent
		return fmt.Errorf("vendor sync finished with failures: %w", report.ItemErrors)
	}
	j.lastSync = startedAt
	return nil
}
