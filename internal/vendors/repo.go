package vendors

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellerpay/payouts-backend/pkg/db/models"
)

// Repository manages persistence for marketplace vendors.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetBySellerID(ctx context.Context, sellerID int64) (*models.Vendor, error)
	List(ctx context.Context) ([]models.Vendor, error)
	Upsert(ctx context.Context, vendor *models.Vendor) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vendor repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetBySellerID(ctx context.Context, sellerID int64) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		First(&vendor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) List(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := r.db.WithContext(ctx).
		Order("seller_id ASC").
		Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// Upsert inserts or refreshes the vendor keyed by its marketplace seller id.
func (r *repository) Upsert(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email",
				"wallet_account_id",
				"wallet_space_id",
				"identified",
				"enabled",
				"updated_at",
			}),
		}).
		Create(vendor).Error
}
