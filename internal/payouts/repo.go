package payouts

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellerpay/payouts-backend/pkg/db/models"
	"github.com/sellerpay/payouts-backend/pkg/enums"
)

// Repository manages persistence for payout operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, op *models.Operation) error
	GetByID(ctx context.Context, id string) (*models.Operation, error)
	ListByStatus(ctx context.Context, status enums.OperationStatus) ([]models.Operation, error)
	ListByStatusUpdatedBefore(ctx context.Context, status enums.OperationStatus, cutoff time.Time) ([]models.Operation, error)
	Save(ctx context.Context, op *models.Operation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an operation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, op *models.Operation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Operation, error) {
	var op models.Operation
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&op).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OperationStatus) ([]models.Operation, error) {
	var ops []models.Operation
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *repository) ListByStatusUpdatedBefore(ctx context.Context, status enums.OperationStatus, cutoff time.Time) ([]models.Operation, error) {
	var ops []models.Operation
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, cutoff).
		Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// Save upserts the operation keyed by its identifier. Saving the same state
// twice is a no-op beyond the updated row.
func (r *repository) Save(ctx context.Context, op *models.Operation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"seller_id",
				"wallet_account_id",
				"amount",
				"status",
				"transfer_ref",
				"withdraw_ref",
				"withdrawn_amount",
				"cycle_date",
				"updated_at",
			}),
		}).
		Create(op).Error
}
