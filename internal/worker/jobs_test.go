package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sellerpay/payouts-backend/internal/payouts"
	"github.com/sellerpay/payouts-backend/internal/vendors"
	"github.com/sellerpay/payouts-backend/pkg/logger"
)

type fakeEngine struct {
	report payouts.Report
	err    error
}

func (f *fakeEngine) Run(context.Context) (payouts.Report, error) {
	return f.report, f.err
}

type fakeSyncer struct {
	since  []time.Time
	report vendors.SyncReport
	err    error
}

func (f *fakeSyncer) Sync(_ context.Context, updatedSince time.Time) (vendors.SyncReport, error) {
	f.since = append(f.since, updatedSince)
	return f.report, f.err
}

func TestPayoutJobReportsItemFailures(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test"})

	clean, err := NewPayoutJob(PayoutJobParams{Logger: logg, Engine: &fakeEngine{}})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := clean.Run(context.Background()); err != nil {
		t.Fatalf("clean run should succeed: %v", err)
	}

	failing, err := NewPayoutJob(PayoutJobParams{Logger: logg, Engine: &fakeEngine{
		report: payouts.Report{TransferFailed: 1, ItemErrors: errors.New("operation x: gateway down")},
	}})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := failing.Run(context.Background()); err == nil {
		t.Fatal("item failures must surface in the job result")
	}
}

func TestVendorSyncJobAdvancesWatermarkOnSuccess(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test"})
	syncer := &fakeSyncer{}
	first := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	times := []time.Time{first, second}
	job, err := NewVendorSyncJob(VendorSyncJobParams{
		Logger:  logg,
		Service: syncer,
		Now: func() time.Time {
			next := times[0]
			if len(times) > 1 {
				times = times[1:]
			}
			return next
		},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(syncer.since) != 2 {
		t.Fatalf("expected 2 sync calls, got %d", len(syncer.since))
	}
	if !syncer.since[0].IsZero() {
		t.Fatalf("first pass must list every seller, got since=%v", syncer.since[0])
	}
	if !syncer.since[1].Equal(first) {
		t.Fatalf("second pass must start from the first run time, got %v", syncer.since[1])
	}
}

func TestVendorSyncJobKeepsWatermarkOnSellerFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test"})
	syncer := &fakeSyncer{report: vendors.SyncReport{
		Listed:     3,
		Failed:     1,
		ItemErrors: errors.New("seller 7: creating wallet account: timeout"),
	}}
	job, err := NewVendorSyncJob(VendorSyncJobParams{
		Logger:  logg,
		Service: syncer,
		Now:     time.Now,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected per-seller failures to surface")
	}
	syncer.report = vendors.SyncReport{Listed: 3}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !syncer.since[1].IsZero() {
		t.Fatalf("failed sellers must be listed again next cycle, got since=%v", syncer.since[1])
	}
}

func TestVendorSyncJobKeepsWatermarkOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test"})
	syncer := &fakeSyncer{err: errors.New("marketplace down")}
	job, err := NewVendorSyncJob(VendorSyncJobParams{
		Logger:  logg,
		Service: syncer,
		Now:     time.Now,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected failure to surface")
	}
	syncer.err = nil
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !syncer.since[1].IsZero() {
		t.Fatalf("failed pass must not advance the watermark, got %v", syncer.since[1])
	}
}
