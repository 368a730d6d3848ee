package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// All repositories handed out inside Do share the same DB session, so a
// state change, its inventory decrement and its decision log row commit or
// roll back together.
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested type, bound to the current transaction/session.
	// Example:
	//   repoAny, err := uow.GetRepository(reflect.TypeOf((*PaymentRepository)(nil)).Elem())
	//   repo := repoAny.(PaymentRepository)
	GetRepository(repoType reflect.Type) (any, error)

	// Type-safe repository access methods (convenience methods)
	TransactionRepository() (TransactionRepository, error)
	DecisionRepository() (DecisionRepository, error)
	PaymentRepository() (PaymentRepository, error)
	ProviderEventRepository() (ProviderEventRepository, error)
	CatalogRepository() (CatalogRepository, error)
	StateRepository() (StateRepository, error)
}

// Repo resolves a repository of type T from uow.
func Repo[T any](uow UnitOfWork) (T, error) {
	var zero T
	repoAny, err := uow.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, ErrUnsupportedRepository
	}
	return repo, nil
}
