// Package transaction runs the escrow transaction lifecycle: creation of a
// direct sale or a cart checkout, counter-offers, confirmation and
// completion with the unlock code.
//
// Every mutating operation holds the per-code lock around its unit of work,
// so a completion and a payment capture on the same code never interleave.
// Events are published only after the unit of work commits.
package transaction

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/events"
	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/money"
	provider "github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/amirasaad/escrow/pkg/service"
	"github.com/amirasaad/escrow/pkg/service/negotiation"
	paymentsvc "github.com/amirasaad/escrow/pkg/service/payment"
	settlementsvc "github.com/amirasaad/escrow/pkg/service/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrPaymentLinkPending is returned by Create, together with a result
// carrying the new code, when the transaction committed but its payment
// link could not be issued.
var ErrPaymentLinkPending = domain.Validation(
	"transaction created, payment link could not be generated; retry from the transactions section")

// CreateRequest describes a new transaction.
type CreateRequest struct {
	SellerUsername   string
	BuyerUsername    string
	ProfileProductID uuid.UUID
	Units            int64
}

// CartItem is one product of a shopping cart.
type CartItem struct {
	ProfileProductID uuid.UUID
	Units            int64
}

// CartRequest checks out a buyer's shopping cart. Items may come from
// several sellers; repeated products are merged.
type CartRequest struct {
	BuyerUsername    string
	ShoppingCartCode string
	Items            []CartItem
}

// CreateResult is the outcome of Create and GenerateFromCart.
type CreateResult struct {
	TransactionCode string `json:"transactionCode"`
	PaymentURL      string `json:"paymentUrl,omitempty"`
	PaymentID       string `json:"paymentId,omitempty"`
}

// CounterOfferRequest proposes new terms for the next negotiation round.
type CounterOfferRequest struct {
	TransactionCode string
	Username        string
	Units           int64
	Amount          decimal.Decimal
}

// CompleteResult is the outcome of Complete. Completion stands even when the
// follow-up transfer to the seller fails; TransferError reports why.
type CompleteResult struct {
	TransactionCode string                 `json:"transactionCode"`
	Release         *settlementsvc.Release `json:"release,omitempty"`
	TransferError   error                  `json:"-"`
}

// Service provides the transaction lifecycle operations.
type Service struct {
	service.Base
	decisions  *negotiation.Log
	payments   *paymentsvc.Service
	settlement *settlementsvc.Service
}

// New creates a transaction service.
func New(
	deps service.Deps,
	payments *paymentsvc.Service,
	settlement *settlementsvc.Service,
) *Service {
	base := service.NewBase(deps, "transaction")
	return &Service{
		Base:       base,
		decisions:  negotiation.New(deps.Logger),
		payments:   payments,
		settlement: settlement,
	}
}

// Create validates parties and inventory, allocates a new code and records
// the first negotiation round in TS-01 with the buyer's implicit acceptance.
// It then requests the payment link; a link failure does not undo the
// transaction and is reported as ErrPaymentLinkPending.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Units <= 0 {
		return nil, transaction.ErrInvalidTerms
	}
	if req.SellerUsername == req.BuyerUsername {
		return nil, transaction.ErrSameParty
	}

	now := s.Now()
	out := &service.Outcome{}
	var tx *transaction.Transaction
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		catalogRepo, err := uow.CatalogRepository()
		if err != nil {
			return err
		}
		if _, err := catalogRepo.GetProfile(ctx, req.SellerUsername); err != nil {
			return notFoundAs(err, transaction.ErrSellerNotFound)
		}
		if _, err := catalogRepo.GetProfile(ctx, req.BuyerUsername); err != nil {
			return notFoundAs(err, transaction.ErrBuyerNotFound)
		}
		product, err := catalogRepo.GetProfileProduct(ctx, req.ProfileProductID)
		if err != nil {
			return notFoundAs(err, transaction.ErrProductNotFound)
		}
		if product.OwnerUsername != req.SellerUsername {
			return transaction.ErrProductNotOwned
		}
		if !product.HasUnits(req.Units) {
			return transaction.ErrInsufficientUnits
		}
		price, err := catalogRepo.LatestPrice(ctx, product.ID)
		if err != nil {
			return notFoundAs(err, transaction.ErrPriceNotFound)
		}
		line := transaction.LineItem{
			SellerUsername:   req.SellerUsername,
			ProfileProductID: product.ID,
			Description:      product.Description,
			Units:            req.Units,
			UnitPrice:        price.Price,
		}
		amount := line.Amount()

		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		h := transaction.Header{
			BuyerUsername: req.BuyerUsername,
			Lines:         []transaction.LineItem{line},
			CreatedAt:     now,
			IsActive:      true,
		}
		if err := txRepo.CreateHeader(ctx, &h); err != nil {
			return err
		}
		var entries []transaction.Entry
		tx, entries = transaction.New(h, transaction.Terms{Units: req.Units, Amount: amount}, now)
		if err := txRepo.AppendEntries(ctx, entries...); err != nil {
			return err
		}
		if _, err := s.decisions.Submit(ctx, uow, h.Code, 1, req.BuyerUsername, true, now); err != nil {
			return err
		}
		out.Transition("transaction", "", string(state.TransactionCreated))
		out.Emit(events.New(events.TransactionCreated, h.Code,
			events.WithActor(req.BuyerUsername),
			events.WithAmount(amount),
			events.WithAttr("seller", req.SellerUsername)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, out)

	code := tx.Header.Code
	s.Logger.Info("Transaction created",
		"transaction_code", code,
		"buyer", req.BuyerUsername,
		"seller", req.SellerUsername,
		"units", req.Units)

	return s.issueLink(ctx, code)
}

// GenerateFromCart checks out a shopping cart as one transaction code. Every
// seller in the cart gets a sell entry for their line items and the buyer a
// buy entry for the cart total, all in TS-01. Cart terms are fixed: the
// transaction cannot be counter-offered. The payment link is requested as
// in Create.
func (s *Service) GenerateFromCart(ctx context.Context, req CartRequest) (*CreateResult, error) {
	items, err := mergeCartItems(req.Items)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	out := &service.Outcome{}
	var tx *transaction.Transaction
	err = s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		catalogRepo, err := uow.CatalogRepository()
		if err != nil {
			return err
		}
		if _, err := catalogRepo.GetProfile(ctx, req.BuyerUsername); err != nil {
			return notFoundAs(err, transaction.ErrBuyerNotFound)
		}
		lines := make([]transaction.LineItem, 0, len(items))
		for _, item := range items {
			product, err := catalogRepo.GetProfileProduct(ctx, item.ProfileProductID)
			if err != nil {
				return notFoundAs(err, transaction.ErrProductNotFound)
			}
			if product.OwnerUsername == req.BuyerUsername {
				return transaction.ErrSameParty
			}
			if _, err := catalogRepo.GetProfile(ctx, product.OwnerUsername); err != nil {
				return notFoundAs(err, transaction.ErrSellerNotFound)
			}
			if !product.HasUnits(item.Units) {
				return transaction.ErrInsufficientUnits
			}
			price, err := catalogRepo.LatestPrice(ctx, product.ID)
			if err != nil {
				return notFoundAs(err, transaction.ErrPriceNotFound)
			}
			lines = append(lines, transaction.LineItem{
				SellerUsername:   product.OwnerUsername,
				ProfileProductID: product.ID,
				Description:      product.Description,
				Units:            item.Units,
				UnitPrice:        price.Price,
			})
		}

		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		h := transaction.Header{
			BuyerUsername:    req.BuyerUsername,
			ShoppingCartCode: req.ShoppingCartCode,
			Lines:            lines,
			CreatedAt:        now,
			IsActive:         true,
		}
		if err := txRepo.CreateHeader(ctx, &h); err != nil {
			return err
		}
		terms := transaction.CartTerms(h.Lines)
		var entries []transaction.Entry
		tx, entries = transaction.New(h, terms, now)
		if err := txRepo.AppendEntries(ctx, entries...); err != nil {
			return err
		}
		if _, err := s.decisions.Submit(ctx, uow, h.Code, 1, req.BuyerUsername, true, now); err != nil {
			return err
		}
		out.Transition("transaction", "", string(state.TransactionCreated))
		out.Emit(events.New(events.TransactionCreated, h.Code,
			events.WithActor(req.BuyerUsername),
			events.WithAmount(terms.Amount),
			events.WithAttr("sellers", strings.Join(tx.Sellers(), ",")),
			events.WithAttr("shopping_cart_code", req.ShoppingCartCode)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, out)

	code := tx.Header.Code
	s.Logger.Info("Cart transaction created",
		"transaction_code", code,
		"buyer", req.BuyerUsername,
		"shopping_cart_code", req.ShoppingCartCode,
		"sellers", len(tx.Sellers()),
		"line_items", len(tx.Header.Lines))
	return s.issueLink(ctx, code)
}

// issueLink requests the payment link of a just created transaction. A
// failure leaves the transaction in place and is reported as
// ErrPaymentLinkPending next to the result.
func (s *Service) issueLink(ctx context.Context, code string) (*CreateResult, error) {
	result := &CreateResult{TransactionCode: code}
	link, err := s.payments.Generate(ctx, code)
	if err != nil {
		s.Logger.Error("Payment link generation failed after create", "transaction_code", code, "error", err)
		return result, errors.Join(ErrPaymentLinkPending, err)
	}
	result.PaymentURL = link.PaymentURL
	result.PaymentID = link.PaymentID
	return result, nil
}

// mergeCartItems validates items and folds repeated products into one line,
// keeping first-seen order.
func mergeCartItems(items []CartItem) ([]CartItem, error) {
	if len(items) == 0 {
		return nil, transaction.ErrEmptyCart
	}
	out := make([]CartItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Units <= 0 {
			return nil, transaction.ErrInvalidTerms
		}
		if i, ok := index[item.ProfileProductID]; ok {
			out[i].Units += item.Units
			continue
		}
		index[item.ProfileProductID] = len(out)
		out = append(out, item)
	}
	return out, nil
}

// CounterOffer appends the next negotiation round with new terms. Only a
// party who has not yet decided at the current version may counter, only
// while a direct sale is in TS-01. A pending payment link is expired at the
// provider before the new terms are written, so the buyer cannot pay the
// old amount; a link the buyer already paid blocks the counter-offer.
func (s *Service) CounterOffer(ctx context.Context, req CounterOfferRequest) error {
	if req.Units <= 0 || !req.Amount.IsPositive() {
		return transaction.ErrInvalidTerms
	}
	terms := transaction.Terms{Units: req.Units, Amount: money.Round2(req.Amount)}
	out := &service.Outcome{}
	err := s.Tx.Lock(ctx, req.TransactionCode, func(ctx context.Context) error {
		var pending *pay.Payment
		err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			if _, err := checkCounterOffer(ctx, uow, req, terms); err != nil {
				return err
			}
			var err error
			pending, err = pendingPayment(ctx, uow, req.TransactionCode)
			return err
		})
		if err != nil {
			return err
		}
		if pending != nil {
			if err := s.expireLink(ctx, pending); err != nil {
				return err
			}
		}

		return s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			now := s.Now()
			tx, err := checkCounterOffer(ctx, uow, req, terms)
			if err != nil {
				return err
			}
			version := tx.Version()
			if _, err := s.decisions.Submit(ctx, uow, tx.Header.Code, version, req.Username, false, now); err != nil {
				return err
			}
			entries, err := tx.Advance(state.TransactionCreated, version+1, terms, now)
			if err != nil {
				return err
			}
			txRepo, err := uow.TransactionRepository()
			if err != nil {
				return err
			}
			if err := txRepo.AppendEntries(ctx, entries...); err != nil {
				return err
			}
			if _, err := s.decisions.Submit(ctx, uow, tx.Header.Code, version+1, req.Username, true, now); err != nil {
				return err
			}
			if err := retirePendingPayment(ctx, uow, tx.Header.Code, now); err != nil {
				return err
			}
			out.Emit(events.New(events.TransactionCounterOffered, tx.Header.Code,
				events.WithActor(req.Username),
				events.WithAmount(terms.Amount),
				events.WithAttr("counterparty", tx.Counterparty(req.Username))))
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.Committed(ctx, out)
	s.Logger.Info("Counter-offer recorded",
		"transaction_code", req.TransactionCode,
		"username", req.Username,
		"units", terms.Units,
		"amount", money.Format(terms.Amount))
	return nil
}

// checkCounterOffer loads the transaction and checks that req may counter it.
func checkCounterOffer(
	ctx context.Context,
	uow repository.UnitOfWork,
	req CounterOfferRequest,
	terms transaction.Terms,
) (*transaction.Transaction, error) {
	tx, err := service.LoadTransaction(ctx, uow, req.TransactionCode)
	if err != nil {
		return nil, err
	}
	if !tx.IsParty(req.Username) {
		return nil, transaction.ErrNotAParty
	}
	if !tx.IsNegotiable() {
		return nil, transaction.ErrFixedTerms
	}
	if tx.State() != state.TransactionCreated {
		return nil, transaction.ErrNotNegotiable
	}
	catalogRepo, err := uow.CatalogRepository()
	if err != nil {
		return nil, err
	}
	product, err := catalogRepo.GetProfileProduct(ctx, tx.Header.Lines[0].ProfileProductID)
	if err != nil {
		return nil, notFoundAs(err, transaction.ErrProductNotFound)
	}
	if !product.HasUnits(terms.Units) {
		return nil, transaction.ErrInsufficientUnits
	}
	return tx, nil
}

// expireLink closes the pending link p at the provider. A link the buyer
// already paid means the capture is in flight.
func (s *Service) expireLink(ctx context.Context, p *pay.Payment) error {
	err := s.CallProvider(ctx, "expire_payment_link", func(ctx context.Context) error {
		return s.Provider.ExpirePaymentLink(ctx, p.ProviderLinkID)
	})
	if errors.Is(err, provider.ErrLinkNotExpirable) {
		return transaction.ErrPaymentCaptured
	}
	if err != nil {
		return err
	}
	s.Logger.Info("Pending payment link expired",
		"transaction_code", p.TransactionCode,
		"payment_id", p.ProviderLinkID)
	return nil
}

// Confirm records the acceptance of username at the current version and
// moves the transaction to TS-02. Confirming twice is an error.
func (s *Service) Confirm(ctx context.Context, code, username string) error {
	out := &service.Outcome{}
	err := s.Tx.Execute(ctx, code, func(uow repository.UnitOfWork) error {
		now := s.Now()
		tx, err := service.LoadTransaction(ctx, uow, code)
		if err != nil {
			return err
		}
		if !tx.IsParty(username) {
			return transaction.ErrNotAParty
		}
		switch tx.State() {
		case state.TransactionAccepted:
			return transaction.ErrAlreadyConfirmed
		case state.TransactionCompleted:
			return transaction.ErrAlreadyCompleted
		}
		version := tx.Version()
		if _, err := s.decisions.Submit(ctx, uow, code, version, username, true, now); err != nil {
			return err
		}
		entries, err := tx.Advance(state.TransactionAccepted, version, tx.Terms(), now)
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if err := txRepo.AppendEntries(ctx, entries...); err != nil {
			return err
		}
		out.Transition("transaction", string(state.TransactionCreated), string(state.TransactionAccepted))
		out.Emit(events.New(events.TransactionConfirmed, code,
			events.WithActor(username),
			events.WithAmount(tx.Terms().Amount)))
		return nil
	})
	if err != nil {
		return err
	}
	s.Committed(ctx, out)
	s.Logger.Info("Transaction confirmed", "transaction_code", code, "username", username)
	return nil
}

// Complete checks the unlock code against the active payment and moves the
// transaction to TS-03, releasing inventory if the capture has not already.
// When the payment is captured the funds are then released to the seller
// outside the lock.
func (s *Service) Complete(ctx context.Context, code, unlockCode string) (*CompleteResult, error) {
	out := &service.Outcome{}
	captured := false
	err := s.Tx.Execute(ctx, code, func(uow repository.UnitOfWork) error {
		now := s.Now()
		tx, err := service.LoadTransaction(ctx, uow, code)
		if err != nil {
			return err
		}
		switch tx.State() {
		case state.TransactionAccepted:
		case state.TransactionCompleted:
			return transaction.ErrAlreadyCompleted
		default:
			return transaction.ErrNotPendingCompletion
		}
		p, err := service.ActivePayment(ctx, uow, code)
		if errors.Is(err, pay.ErrNotFound) {
			return transaction.ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		if p.State != state.PaymentIssued && p.State != state.PaymentCaptured {
			return transaction.ErrPaymentClosed
		}
		if subtle.ConstantTimeCompare([]byte(p.UnlockCode), []byte(unlockCode)) != 1 {
			return transaction.ErrInvalidUnlockCode
		}

		entries, err := tx.Advance(state.TransactionCompleted, tx.Version(), tx.Terms(), now)
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if err := txRepo.AppendEntries(ctx, entries...); err != nil {
			return err
		}
		if _, err := service.ReleaseInventory(ctx, uow, tx); err != nil {
			return err
		}
		captured = p.State == state.PaymentCaptured
		out.Transition("transaction", string(state.TransactionAccepted), string(state.TransactionCompleted))
		out.Emit(events.New(events.TransactionCompleted, code,
			events.WithActor(tx.Header.BuyerUsername),
			events.WithAmount(tx.Terms().Amount)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, out)
	s.Logger.Info("Transaction completed", "transaction_code", code)

	result := &CompleteResult{TransactionCode: code}
	if !captured || s.settlement == nil {
		return result, nil
	}
	release, err := s.settlement.ChargeToSeller(ctx, code)
	if err != nil {
		s.Logger.Error("Release to seller failed after completion", "transaction_code", code, "error", err)
		result.TransferError = err
		return result, nil
	}
	result.Release = release
	return result, nil
}

// pendingPayment returns the issued, uncaptured active payment of code, or
// nil when there is none.
func pendingPayment(ctx context.Context, uow repository.UnitOfWork, code string) (*pay.Payment, error) {
	p, err := service.ActivePayment(ctx, uow, code)
	if errors.Is(err, pay.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.State != state.PaymentIssued {
		return nil, transaction.ErrPaymentCaptured
	}
	return p, nil
}

// retirePendingPayment deactivates the pending payment of code. Its link must
// already be expired at the provider.
func retirePendingPayment(ctx context.Context, uow repository.UnitOfWork, code string, now time.Time) error {
	p, err := pendingPayment(ctx, uow, code)
	if err != nil || p == nil {
		return err
	}
	p.Deactivate(now)
	repo, err := uow.PaymentRepository()
	if err != nil {
		return err
	}
	return repo.Update(ctx, p)
}

func notFoundAs(err, target error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return target
	}
	return err
}
