package repository

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/catalog"
	"github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/google/uuid"
)

// TransactionRepository stores transaction headers and their append-only
// settlement entries.
type TransactionRepository interface {
	// CreateHeader allocates the next sequence from storage, derives the
	// transaction code from it and persists the header with its line items.
	CreateHeader(ctx context.Context, h *transaction.Header) error
	UpdateHeader(ctx context.Context, h *transaction.Header) error
	GetHeader(ctx context.Context, code string) (*transaction.Header, error)
	AppendEntries(ctx context.Context, entries ...transaction.Entry) error
	// ListEntries returns entries ordered by created_at DESC, revision DESC.
	ListEntries(ctx context.Context, code string) ([]transaction.Entry, error)
	Get(ctx context.Context, code string) (*transaction.Transaction, error)
	// ListByUser returns transactions where username is the buyer or sells
	// at least one line item.
	ListByUser(ctx context.Context, username string) ([]*transaction.Transaction, error)
}

// DecisionRepository stores the negotiation decision log.
type DecisionRepository interface {
	// Append returns domain.ErrAlreadyExists when the (code, version,
	// username) key is taken.
	Append(ctx context.Context, d transaction.Decision) error
	ListByCode(ctx context.Context, code string) ([]transaction.Decision, error)
	ListByVersion(ctx context.Context, code string, version int) ([]transaction.Decision, error)
}

// PaymentRepository stores escrow payments keyed by transaction code.
type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	Update(ctx context.Context, p *payment.Payment) error
	// GetActiveByCode returns the most recently created active payment.
	GetActiveByCode(ctx context.Context, code string) (*payment.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	GetByProviderLinkID(ctx context.Context, linkID string) (*payment.Payment, error)
	// AddPayout records one seller transfer. It returns
	// domain.ErrAlreadyExists when the seller was already paid for p.
	AddPayout(ctx context.Context, paymentID uuid.UUID, po payment.Payout) error
}

// ProviderEventRepository de-duplicates provider webhook deliveries.
type ProviderEventRepository interface {
	// MarkProcessed records eventID and reports false when it was already
	// recorded.
	MarkProcessed(ctx context.Context, eventID, kind, code string) (bool, error)
}

// CatalogRepository reads parties and inventory and decrements stock.
type CatalogRepository interface {
	GetProfile(ctx context.Context, username string) (*catalog.Profile, error)
	UpdateProfile(ctx context.Context, p *catalog.Profile) error
	GetProfileProduct(ctx context.Context, id uuid.UUID) (*catalog.ProfileProduct, error)
	// LatestPrice returns the price with the most recent created_at.
	LatestPrice(ctx context.Context, profileProductID uuid.UUID) (*catalog.Price, error)
	// DecrementUnits subtracts units only when enough stock remains.
	DecrementUnits(ctx context.Context, profileProductID uuid.UUID, units int64) error
}

// StateRepository reads the persisted state registries.
type StateRepository interface {
	TransactionStates(ctx context.Context) ([]state.State, error)
	PaymentStates(ctx context.Context) ([]state.State, error)
}
