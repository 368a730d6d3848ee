package repository

import (
	"context"
	"time"

	"github.com/amirasaad/escrow/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type providerEventRepository struct {
	db *gorm.DB
}

// NewProviderEventRepository creates a webhook de-duplication store bound to db.
func NewProviderEventRepository(db *gorm.DB) repository.ProviderEventRepository {
	return &providerEventRepository{db: db}
}

// MarkProcessed implements repository.ProviderEventRepository.
func (r *providerEventRepository) MarkProcessed(ctx context.Context, eventID, kind, code string) (bool, error) {
	row := ProcessedProviderEvent{
		EventID:         eventID,
		Kind:            kind,
		TransactionCode: code,
		CreatedAt:       time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return false, err
	}
	return res.RowsAffected == 1, nil
}
