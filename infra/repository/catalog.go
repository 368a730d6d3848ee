package repository

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/catalog"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a profile and inventory repository bound to db.
func NewCatalogRepository(db *gorm.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

// GetProfile implements repository.CatalogRepository.
func (r *catalogRepository) GetProfile(ctx context.Context, username string) (*catalog.Profile, error) {
	var row Profile
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("username = ? AND is_active = ?", username, true).First(&row).Error
	}); err != nil {
		return nil, err
	}
	return &catalog.Profile{
		ID:              row.ID,
		Username:        row.Username,
		Email:           row.Email,
		IsActive:        row.IsActive,
		PayoutAccountID: row.PayoutAccountID,
		CreatedAt:       row.CreatedAt,
	}, nil
}

// UpdateProfile implements repository.CatalogRepository.
func (r *catalogRepository) UpdateProfile(ctx context.Context, p *catalog.Profile) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&Profile{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"email":             p.Email,
				"payout_account_id": p.PayoutAccountID,
				"is_active":         p.IsActive,
			}).Error
	})
}

// GetProfileProduct implements repository.CatalogRepository.
func (r *catalogRepository) GetProfileProduct(ctx context.Context, id uuid.UUID) (*catalog.ProfileProduct, error) {
	var row ProfileProduct
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&row).Error
	}); err != nil {
		return nil, err
	}
	return &catalog.ProfileProduct{
		ID:            row.ID,
		OwnerUsername: row.OwnerUsername,
		Description:   row.Description,
		Units:         row.Units,
		IsActive:      row.IsActive,
	}, nil
}

// LatestPrice implements repository.CatalogRepository.
func (r *catalogRepository) LatestPrice(ctx context.Context, profileProductID uuid.UUID) (*catalog.Price, error) {
	var row ProfileProductPrice
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("profile_product_id = ?", profileProductID).
			Order("created_at DESC").
			First(&row).Error
	}); err != nil {
		return nil, err
	}
	return &catalog.Price{
		ID:               row.ID,
		ProfileProductID: row.ProfileProductID,
		Price:            row.Price,
		CreatedAt:        row.CreatedAt,
	}, nil
}

// DecrementUnits implements repository.CatalogRepository. The stock check and
// the update are one statement so concurrent sales cannot oversell.
func (r *catalogRepository) DecrementUnits(ctx context.Context, profileProductID uuid.UUID, units int64) error {
	res := r.db.WithContext(ctx).
		Model(&ProfileProduct{}).
		Where("id = ? AND units >= ?", profileProductID, units).
		UpdateColumn("units", gorm.Expr("units - ?", units))
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return repository.ErrInsufficientStock
	}
	return nil
}
