// Package fixtures assembles in-memory escrow dependencies for tests.
package fixtures

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/escrow/infra/eventbus"
	"github.com/amirasaad/escrow/infra/lock"
	"github.com/amirasaad/escrow/infra/notify"
	"github.com/amirasaad/escrow/infra/provider/mockpayment"
	"github.com/amirasaad/escrow/infra/repository/memory"
	"github.com/amirasaad/escrow/internal/fixtures/catalog"
	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	provider "github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/amirasaad/escrow/pkg/service"
	paymentsvc "github.com/amirasaad/escrow/pkg/service/payment"
	settlementsvc "github.com/amirasaad/escrow/pkg/service/settlement"
	transactionsvc "github.com/amirasaad/escrow/pkg/service/transaction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// WebhookSecret signs mock provider webhook deliveries.
const WebhookSecret = "whsec_fixture"

// Clock hands out strictly increasing instants so orderings by creation
// time are deterministic.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now advances the clock by one second and returns the new instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// Escrow is an in-memory escrow environment seeded with the embedded
// catalog.
type Escrow struct {
	Store    *memory.Store
	Provider *mockpayment.MockPaymentProvider
	Bus      *eventbus.MemoryEventBus
	Notifier *notify.MemoryNotifier
	Clock    *Clock
	Deps     service.Deps
}

// NewEscrow builds the environment. Services built from Deps share the
// store, provider, lock and bus.
func NewEscrow(t testing.TB) *Escrow {
	t.Helper()
	seed, err := catalog.LoadCatalogCSV("")
	require.NoError(t, err)
	store := memory.NewStore()
	seed.Apply(store)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := NewClock()
	mockProvider := mockpayment.NewMockPaymentProvider(WebhookSecret)
	bus := eventbus.NewWithMemory(logger)
	notifier := notify.NewMemoryNotifier(logger)

	return &Escrow{
		Store:    store,
		Provider: mockProvider,
		Bus:      bus,
		Notifier: notifier,
		Clock:    clock,
		Deps: service.Deps{
			Uow:      memory.NewUoW(store),
			Locker:   lock.NewMemoryLocker(),
			Provider: mockProvider,
			EventBus: bus,
			Notifier: notifier,
			States:   state.MustDefaultRegistry(),
			Escrow: &config.Escrow{
				Currency:        "hnl",
				ProviderTimeout: 2 * time.Second,
				SecretLength:    32,
			},
			Logger: logger,
			Now:    clock.Now,
		},
	}
}

// Services are the escrow services built over one Escrow environment.
type Services struct {
	Transactions *transactionsvc.Service
	Payments     *paymentsvc.Service
	Settlement   *settlementsvc.Service
}

// Services wires the escrow services over e.Deps.
func (e *Escrow) Services() Services {
	payments := paymentsvc.New(e.Deps)
	settlement := settlementsvc.New(e.Deps)
	return Services{
		Transactions: transactionsvc.New(e.Deps, payments, settlement),
		Payments:     payments,
		Settlement:   settlement,
	}
}

// GuitarSale is the default sale of the embedded catalog: two guitars at
// 500.00 from seller to buyer, 1000.00 in total.
func GuitarSale(units int64) transactionsvc.CreateRequest {
	return transactionsvc.CreateRequest{
		SellerUsername:   "seller",
		BuyerUsername:    "buyer",
		ProfileProductID: catalog.GuitarID,
		Units:            units,
	}
}

// Units returns the stock of a profile product.
func (e *Escrow) Units(t testing.TB, id uuid.UUID) int64 {
	t.Helper()
	p, ok := e.Store.Product(id)
	require.True(t, ok)
	return p.Units
}

// ActivePayment reads the active payment of code.
func (e *Escrow) ActivePayment(t testing.TB, code string) *payment.Payment {
	t.Helper()
	repo, err := e.Deps.Uow.PaymentRepository()
	require.NoError(t, err)
	p, err := repo.GetActiveByCode(context.Background(), code)
	require.NoError(t, err)
	return p
}

// UnlockCode returns the last unlock code the buyer was sent for code.
func (e *Escrow) UnlockCode(t testing.TB, buyer, code string) string {
	t.Helper()
	unlock, ok := e.Notifier.LastUnlockCode(buyer, code)
	require.True(t, ok, "no unlock code sent to %s for %s", buyer, code)
	return unlock
}

// Payment reads a payment by its provider link id, active or not.
func (e *Escrow) Payment(t testing.TB, linkID string) *payment.Payment {
	t.Helper()
	repo, err := e.Deps.Uow.PaymentRepository()
	require.NoError(t, err)
	p, err := repo.GetByProviderLinkID(context.Background(), linkID)
	require.NoError(t, err)
	return p
}

// PaidWebhook is the checkout-completed delivery the provider sends when the
// buyer pays linkID. It echoes the metadata the link was created with.
func (e *Escrow) PaidWebhook(t testing.TB, eventID, linkID, paymentIntentID string) mockpayment.WebhookBody {
	t.Helper()
	req, ok := e.Provider.LinkRequest(linkID)
	require.True(t, ok, "unknown link %s", linkID)
	return mockpayment.WebhookBody{
		ID:              eventID,
		Kind:            provider.KindCheckoutCompleted,
		LinkID:          linkID,
		PaymentIntentID: paymentIntentID,
		TransactionCode: req.ReferenceCode,
		PaymentRef:      req.PaymentRef,
		Paid:            true,
	}
}

// CartCheckout is a cart of one guitar line from seller and one amplifier
// line from maker.
func CartCheckout(guitars, amplifiers int64) transactionsvc.CartRequest {
	return transactionsvc.CartRequest{
		BuyerUsername:    "buyer",
		ShoppingCartCode: "CART-0001",
		Items: []transactionsvc.CartItem{
			{ProfileProductID: catalog.GuitarID, Units: guitars},
			{ProfileProductID: catalog.AmplifierID, Units: amplifiers},
		},
	}
}

// Webhook encodes body and returns it with its signature.
func (e *Escrow) Webhook(t testing.TB, body mockpayment.WebhookBody) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return payload, e.Provider.Sign(payload)
}

// Deliver signs, parses and applies a webhook body.
func (e *Escrow) Deliver(t testing.TB, svc *paymentsvc.Service, body mockpayment.WebhookBody) error {
	t.Helper()
	payload, sig := e.Webhook(t, body)
	evt, err := e.Provider.ParseWebhook(payload, sig)
	require.NoError(t, err)
	return svc.HandleEvent(context.Background(), evt)
}
