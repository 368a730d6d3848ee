package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
//
// Repositories obtained inside Do share the transaction session, so a state
// change, its decision row and its stock decrement commit together.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB. The state registry maps
// state codes to the ids stored on entry and payment rows.
func NewUoW(db *gorm.DB, states *state.Registry) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			typeOf[repository.TransactionRepository](): func(db *gorm.DB) any {
				return NewTransactionRepository(db, states)
			},
			typeOf[repository.DecisionRepository](): func(db *gorm.DB) any {
				return NewDecisionRepository(db)
			},
			typeOf[repository.PaymentRepository](): func(db *gorm.DB) any {
				return NewPaymentRepository(db, states)
			},
			typeOf[repository.ProviderEventRepository](): func(db *gorm.DB) any {
				return NewProviderEventRepository(db)
			},
			typeOf[repository.CatalogRepository](): func(db *gorm.DB) any {
				return NewCatalogRepository(db)
			},
			typeOf[repository.StateRepository](): func(db *gorm.DB) any {
				return NewStateRepository(db)
			},
		},
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
// Calling Do on a UoW already inside a transaction nests through a savepoint.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.session().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
}

// GetRepository provides type-safe access to repositories using the transaction session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnsupportedRepository, repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// TransactionRepository returns the transaction repository.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return repository.Repo[repository.TransactionRepository](u)
}

// DecisionRepository returns the decision log repository.
func (u *UoW) DecisionRepository() (repository.DecisionRepository, error) {
	return repository.Repo[repository.DecisionRepository](u)
}

// PaymentRepository returns the payment repository.
func (u *UoW) PaymentRepository() (repository.PaymentRepository, error) {
	return repository.Repo[repository.PaymentRepository](u)
}

// ProviderEventRepository returns the webhook de-duplication repository.
func (u *UoW) ProviderEventRepository() (repository.ProviderEventRepository, error) {
	return repository.Repo[repository.ProviderEventRepository](u)
}

// CatalogRepository returns the profile and inventory repository.
func (u *UoW) CatalogRepository() (repository.CatalogRepository, error) {
	return repository.Repo[repository.CatalogRepository](u)
}

// StateRepository returns the state registry reader.
func (u *UoW) StateRepository() (repository.StateRepository, error) {
	return repository.Repo[repository.StateRepository](u)
}

var _ repository.UnitOfWork = (*UoW)(nil)
