// Package service holds what the escrow services share: their dependencies,
// post-commit event publication and the one-time inventory release.
//
// The services themselves live in sub-packages:
//
//	import "github.com/amirasaad/escrow/pkg/service/transaction"
//	import "github.com/amirasaad/escrow/pkg/service/payment"
//	import "github.com/amirasaad/escrow/pkg/service/settlement"
//	import "github.com/amirasaad/escrow/pkg/service/negotiation"
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/pkg/decorator"
	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/catalog"
	"github.com/amirasaad/escrow/pkg/domain/events"
	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/eventbus"
	"github.com/amirasaad/escrow/pkg/lock"
	"github.com/amirasaad/escrow/pkg/metrics"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/amirasaad/escrow/pkg/notify"
	"github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/amirasaad/escrow/pkg/repository"
)

// Deps holds the collaborators of the escrow services.
type Deps struct {
	Uow      repository.UnitOfWork
	Locker   lock.Locker
	Provider payment.Provider
	EventBus eventbus.Bus
	// Notifier reaches the buyer directly. Unlock codes only travel here.
	Notifier notify.Notifier
	States   *state.Registry
	Metrics  *metrics.Metrics
	Escrow   *config.Escrow
	Logger   *slog.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Base is embedded by every service.
type Base struct {
	Deps
	Tx decorator.TransactionDecorator
}

// NewBase fills in defaults and builds the per-code transaction decorator.
func NewBase(deps Deps, name string) Base {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("service", name)
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.States == nil {
		deps.States = state.MustDefaultRegistry()
	}
	if deps.Escrow == nil {
		deps.Escrow = &config.Escrow{Currency: "hnl", ProviderTimeout: 15 * time.Second, SecretLength: 32}
	}
	return Base{
		Deps: deps,
		Tx:   decorator.NewUnitOfWorkTransactionDecorator(deps.Uow, deps.Locker, deps.Metrics, deps.Logger),
	}
}

// Currency is the deployment currency.
func (b *Base) Currency() money.Code {
	return money.Code(b.Escrow.Currency)
}

// CallProvider bounds a provider call by the configured timeout and records
// its outcome.
func (b *Base) CallProvider(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.Escrow.ProviderTimeout)
	defer cancel()
	start := time.Now()
	err := fn(ctx)
	b.Metrics.ProviderRequest(op, start, err)
	if err != nil {
		b.Logger.Error("Payment provider call failed", "operation", op, "error", err)
		return fmt.Errorf("payment provider %s: %w", op, err)
	}
	return nil
}

// Outcome collects what a unit of work changed. Nothing in it is reported
// until Committed is called after the unit of work returns nil.
type Outcome struct {
	Events      []events.Event
	Unlocks     []notify.UnlockCode
	transitions []transition
}

type transition struct {
	aggregate, from, to string
}

// Transition notes a state change of aggregate.
func (o *Outcome) Transition(aggregate, from, to string) {
	o.transitions = append(o.transitions, transition{aggregate, from, to})
}

// Emit queues e for publication.
func (o *Outcome) Emit(e events.Event) {
	o.Events = append(o.Events, e)
}

// Notify queues an unlock code notice for the buyer.
func (o *Outcome) Notify(n notify.UnlockCode) {
	o.Unlocks = append(o.Unlocks, n)
}

// Committed records the transitions of o, publishes its events and sends
// its buyer notices.
func (b *Base) Committed(ctx context.Context, o *Outcome) {
	if o == nil {
		return
	}
	for _, t := range o.transitions {
		b.Metrics.Transition(t.aggregate, t.from, t.to)
	}
	b.Publish(ctx, o.Events...)
	for _, n := range o.Unlocks {
		_ = b.SendUnlockCode(ctx, n)
	}
}

// SendUnlockCode delivers n to the buyer. A failure is logged and returned;
// the buyer can ask for the notice again.
func (b *Base) SendUnlockCode(ctx context.Context, n notify.UnlockCode) error {
	if b.Notifier == nil {
		b.Logger.Warn("No buyer notifier configured; unlock code not delivered",
			"transaction_code", n.TransactionCode)
		return ErrNotifierUnavailable
	}
	if err := b.Notifier.SendUnlockCode(ctx, n); err != nil {
		b.Logger.Error("Failed to deliver unlock code",
			"transaction_code", n.TransactionCode,
			"buyer", n.BuyerUsername,
			"error", err)
		return fmt.Errorf("deliver unlock code: %w", err)
	}
	b.Logger.Info("Unlock code delivered to buyer",
		"transaction_code", n.TransactionCode,
		"buyer", n.BuyerUsername)
	return nil
}

// Publish emits committed events. Failures are logged and never undo the
// committed change.
func (b *Base) Publish(ctx context.Context, evs ...events.Event) {
	if b.EventBus == nil {
		return
	}
	for _, e := range evs {
		if err := b.EventBus.Emit(ctx, e); err != nil {
			b.Logger.Error("Failed to publish event",
				"event_type", e.Kind,
				"transaction_code", e.TransactionCode,
				"error", err)
		}
	}
}

// ErrNotifierUnavailable is returned when no buyer notifier is wired.
var ErrNotifierUnavailable = errors.New("buyer notifier unavailable")

// ReleaseInventory decrements the stock of every line item the first time it
// is called for a header. It reports whether stock moved.
func ReleaseInventory(ctx context.Context, uow repository.UnitOfWork, tx *transaction.Transaction) (bool, error) {
	if tx.Header.InventoryReleased {
		return false, nil
	}
	catalogRepo, err := uow.CatalogRepository()
	if err != nil {
		return false, err
	}
	txRepo, err := uow.TransactionRepository()
	if err != nil {
		return false, err
	}
	for _, a := range tx.Allocations() {
		if err := catalogRepo.DecrementUnits(ctx, a.ProfileProductID, a.Units); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return false, transaction.ErrInsufficientUnits
			}
			return false, err
		}
	}
	tx.Header.InventoryReleased = true
	if err := txRepo.UpdateHeader(ctx, &tx.Header); err != nil {
		return false, err
	}
	return true, nil
}

// LoadTransaction reads the transaction of code.
func LoadTransaction(ctx context.Context, uow repository.UnitOfWork, code string) (*transaction.Transaction, error) {
	repo, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	tx, err := repo.Get(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, transaction.ErrNotFound
	}
	return tx, err
}

// ActivePayment reads the most recent active payment of code.
func ActivePayment(ctx context.Context, uow repository.UnitOfWork, code string) (*pay.Payment, error) {
	repo, err := uow.PaymentRepository()
	if err != nil {
		return nil, err
	}
	p, err := repo.GetActiveByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, pay.ErrNotFound
	}
	return p, err
}

// LoadProfile reads the active profile of username.
func LoadProfile(ctx context.Context, uow repository.UnitOfWork, username string) (*catalog.Profile, error) {
	repo, err := uow.CatalogRepository()
	if err != nil {
		return nil, err
	}
	p, err := repo.GetProfile(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, pay.ErrProfileNotFound
	}
	return p, err
}
