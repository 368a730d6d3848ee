// Package memory provides an in-process unit of work with the same contract
// as the gorm implementation. Do runs against a snapshot and swaps it in on
// success, so a failing callback leaves no partial writes.
package memory

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/amirasaad/escrow/pkg/domain/catalog"
	"github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/google/uuid"
)

type data struct {
	seq       uint64
	headers   map[string]transaction.Header
	entries   map[string][]transaction.Entry
	decisions map[string][]transaction.Decision
	payments  map[uuid.UUID]payment.Payment
	events    map[string]struct{}
	profiles  map[string]catalog.Profile
	products  map[uuid.UUID]catalog.ProfileProduct
	prices    map[uuid.UUID][]catalog.Price
	txStates  []state.State
	payStates []state.State
}

func newData() *data {
	return &data{
		headers:   make(map[string]transaction.Header),
		entries:   make(map[string][]transaction.Entry),
		decisions: make(map[string][]transaction.Decision),
		payments:  make(map[uuid.UUID]payment.Payment),
		events:    make(map[string]struct{}),
		profiles:  make(map[string]catalog.Profile),
		products:  make(map[uuid.UUID]catalog.ProfileProduct),
		prices:    make(map[uuid.UUID][]catalog.Price),
		txStates:  state.DefaultTransactionStates(),
		payStates: state.DefaultPaymentStates(),
	}
}

func (d *data) clone() *data {
	c := &data{
		seq:       d.seq,
		headers:   maps.Clone(d.headers),
		entries:   make(map[string][]transaction.Entry, len(d.entries)),
		decisions: make(map[string][]transaction.Decision, len(d.decisions)),
		payments:  maps.Clone(d.payments),
		events:    maps.Clone(d.events),
		profiles:  maps.Clone(d.profiles),
		products:  maps.Clone(d.products),
		prices:    make(map[uuid.UUID][]catalog.Price, len(d.prices)),
		txStates:  slices.Clone(d.txStates),
		payStates: slices.Clone(d.payStates),
	}
	for k, v := range d.entries {
		c.entries[k] = slices.Clone(v)
	}
	for k, v := range d.decisions {
		c.decisions[k] = slices.Clone(v)
	}
	for k, v := range d.prices {
		c.prices[k] = slices.Clone(v)
	}
	return c
}

// Store is the shared in-memory database.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore returns an empty store seeded with the canonical state registries.
func NewStore() *Store {
	return &Store{data: newData()}
}

// AddProfile inserts or replaces a profile.
func (s *Store) AddProfile(p catalog.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.profiles[p.Username] = p
}

// AddProduct inserts or replaces a profile product.
func (s *Store) AddProduct(p catalog.ProfileProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
}

// AddPrice appends a price to a product's history.
func (s *Store) AddPrice(p catalog.Price) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.prices[p.ProfileProductID] = append(s.data.prices[p.ProfileProductID], p)
}

// Product returns the current stock record of id.
func (s *Store) Product(id uuid.UUID) (catalog.ProfileProduct, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.products[id]
	return p, ok
}

// UoW is the in-memory repository.UnitOfWork.
type UoW struct {
	store *Store
	tx    *data
}

// NewUoW returns a unit of work over store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Do serializes callbacks on the store. Nested calls reuse the open snapshot.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	snapshot := u.store.data.clone()
	if err := fn(&UoW{store: u.store, tx: snapshot}); err != nil {
		return err
	}
	u.store.data = snapshot
	return nil
}

// GetRepository returns a repository bound to the open snapshot. Outside Do
// every call runs in its own short transaction.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	r := &repos{uow: u}
	switch repoType {
	case reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem():
		return &transactionRepo{r}, nil
	case reflect.TypeOf((*repository.DecisionRepository)(nil)).Elem():
		return &decisionRepo{r}, nil
	case reflect.TypeOf((*repository.PaymentRepository)(nil)).Elem():
		return &paymentRepo{r}, nil
	case reflect.TypeOf((*repository.ProviderEventRepository)(nil)).Elem():
		return &providerEventRepo{r}, nil
	case reflect.TypeOf((*repository.CatalogRepository)(nil)).Elem():
		return &catalogRepo{r}, nil
	case reflect.TypeOf((*repository.StateRepository)(nil)).Elem():
		return &stateRepo{r}, nil
	}
	return nil, fmt.Errorf("%w: %v", repository.ErrUnsupportedRepository, repoType)
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return repository.Repo[repository.TransactionRepository](u)
}

func (u *UoW) DecisionRepository() (repository.DecisionRepository, error) {
	return repository.Repo[repository.DecisionRepository](u)
}

func (u *UoW) PaymentRepository() (repository.PaymentRepository, error) {
	return repository.Repo[repository.PaymentRepository](u)
}

func (u *UoW) ProviderEventRepository() (repository.ProviderEventRepository, error) {
	return repository.Repo[repository.ProviderEventRepository](u)
}

func (u *UoW) CatalogRepository() (repository.CatalogRepository, error) {
	return repository.Repo[repository.CatalogRepository](u)
}

func (u *UoW) StateRepository() (repository.StateRepository, error) {
	return repository.Repo[repository.StateRepository](u)
}

var _ repository.UnitOfWork = (*UoW)(nil)

// repos runs each repository call against the open snapshot, or inside a
// single-call transaction when used outside Do.
type repos struct {
	uow *UoW
}

func (r *repos) run(ctx context.Context, fn func(d *data) error) error {
	if r.uow.tx != nil {
		return fn(r.uow.tx)
	}
	return r.uow.Do(ctx, func(inner repository.UnitOfWork) error {
		return fn(inner.(*UoW).tx)
	})
}
