package repository

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/repository"
	"gorm.io/gorm"
)

type stateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a state registry reader bound to db.
func NewStateRepository(db *gorm.DB) repository.StateRepository {
	return &stateRepository{db: db}
}

// TransactionStates implements repository.StateRepository.
func (r *stateRepository) TransactionStates(ctx context.Context) ([]state.State, error) {
	var rows []TransactionState
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]state.State, 0, len(rows))
	for _, m := range rows {
		out = append(out, state.State{ID: m.ID, Code: m.Code, Description: m.Description, IsActive: m.IsActive})
	}
	return out, nil
}

// PaymentStates implements repository.StateRepository.
func (r *stateRepository) PaymentStates(ctx context.Context) ([]state.State, error) {
	var rows []PaymentState
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make([]state.State, 0, len(rows))
	for _, m := range rows {
		out = append(out, state.State{ID: m.ID, Code: m.Code, Description: m.Description, IsActive: m.IsActive})
	}
	return out, nil
}

// LoadRegistry reads both registries and validates them.
func LoadRegistry(ctx context.Context, repo repository.StateRepository) (*state.Registry, error) {
	tx, err := repo.TransactionStates(ctx)
	if err != nil {
		return nil, err
	}
	pay, err := repo.PaymentStates(ctx)
	if err != nil {
		return nil, err
	}
	return state.NewRegistry(tx, pay)
}
