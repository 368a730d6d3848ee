package repository

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"gorm.io/gorm"
)

type decisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a decision log repository bound to db.
func NewDecisionRepository(db *gorm.DB) repository.DecisionRepository {
	return &decisionRepository{db: db}
}

// Append implements repository.DecisionRepository. The unique index on
// (code, version, username) turns a second decision into ErrAlreadyExists.
func (r *decisionRepository) Append(ctx context.Context, d transaction.Decision) error {
	row := TransactionDecision{
		ID:         d.ID,
		Code:       d.Code,
		Version:    d.Version,
		Username:   d.Username,
		IsAccepted: d.IsAccepted,
		CreatedAt:  d.CreatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

// ListByCode implements repository.DecisionRepository.
func (r *decisionRepository) ListByCode(ctx context.Context, code string) ([]transaction.Decision, error) {
	return r.find(ctx, r.db.Where("code = ?", code))
}

// ListByVersion implements repository.DecisionRepository.
func (r *decisionRepository) ListByVersion(ctx context.Context, code string, version int) ([]transaction.Decision, error) {
	return r.find(ctx, r.db.Where("code = ? AND version = ?", code, version))
}

func (r *decisionRepository) find(ctx context.Context, q *gorm.DB) ([]transaction.Decision, error) {
	var rows []TransactionDecision
	if err := WrapError(func() error {
		return q.WithContext(ctx).Order("version ASC").Order("created_at ASC").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]transaction.Decision, 0, len(rows))
	for _, m := range rows {
		out = append(out, transaction.Decision{
			ID:         m.ID,
			Code:       m.Code,
			Version:    m.Version,
			Username:   m.Username,
			IsAccepted: m.IsAccepted,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
