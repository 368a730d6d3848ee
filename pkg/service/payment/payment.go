// Package payment issues escrow payment links and captures payments, either
// from provider webhooks or from the success-page poll. Both triggers
// converge on the same capture step.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/escrow/pkg/codegen"
	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/events"
	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/amirasaad/escrow/pkg/notify"
	provider "github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/amirasaad/escrow/pkg/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Link is a payment link handed to the buyer.
type Link struct {
	TransactionCode string `json:"transactionCode,omitempty"`
	PaymentURL      string `json:"paymentUrl"`
	PaymentID       string `json:"paymentId"`
}

// StatusView is the read model of a transaction's active payment.
type StatusView struct {
	TransactionCode string          `json:"transactionCode"`
	PaymentURL      string          `json:"paymentUrl"`
	PaymentID       string          `json:"paymentId"`
	State           string          `json:"state"`
	StateName       string          `json:"stateDescription"`
	PaymentStatus   string          `json:"paymentStatus"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// Service provides payment generation, capture and status operations.
type Service struct {
	service.Base
}

// New creates a payment service.
func New(deps service.Deps) *Service {
	return &Service{Base: service.NewBase(deps, "payment")}
}

// Generate returns the active pending link of code, or issues a new one for
// the transaction's current amount. A payment the provider already
// confirmed is never re-issued.
func (s *Service) Generate(ctx context.Context, code string) (*Link, error) {
	logger := s.Logger.With("transaction_code", code)
	var link *Link
	err := s.Tx.Lock(ctx, code, func(ctx context.Context) error {
		var amount decimal.Decimal
		err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			tx, err := service.LoadTransaction(ctx, uow, code)
			if err != nil {
				return err
			}
			p, err := service.ActivePayment(ctx, uow, code)
			switch {
			case errors.Is(err, pay.ErrNotFound):
			case err != nil:
				return err
			case p.IsReusable():
				link = &Link{TransactionCode: code, PaymentURL: p.PaymentURL, PaymentID: p.ProviderLinkID}
				return nil
			default:
				return pay.ErrAlreadyProcessed
			}
			amount = tx.Terms().Amount
			return nil
		})
		if err != nil || link != nil {
			return err
		}

		minor, err := money.MinorUnits(amount)
		if err != nil {
			return err
		}
		secrets, err := codegen.NewSecrets(s.Escrow.SecretLength)
		if err != nil {
			return err
		}
		paymentID := uuid.New()
		var created *provider.Link
		err = s.CallProvider(ctx, "create_payment_link", func(ctx context.Context) error {
			created, err = s.Provider.CreatePaymentLink(ctx, provider.LinkRequest{
				AmountMinor:   minor,
				Currency:      s.Currency().Provider(),
				Description:   fmt.Sprintf("Pago de transacción %s", code),
				ReferenceCode: code,
				PaymentRef:    paymentID.String(),
			})
			return err
		})
		if err != nil {
			return err
		}

		p := pay.New(code, amount, s.Currency(), secrets, created.ID, created.URL, s.Now())
		p.ID = paymentID
		err = s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.PaymentRepository()
			if err != nil {
				return err
			}
			return repo.Create(ctx, p)
		})
		if err != nil {
			return err
		}
		link = &Link{TransactionCode: code, PaymentURL: p.PaymentURL, PaymentID: p.ProviderLinkID}
		out := &service.Outcome{}
		out.Transition("payment", "", string(state.PaymentIssued))
		out.Emit(events.New(events.PaymentGenerated, code,
			events.WithAmount(amount),
			events.WithAttr("payment_id", p.ProviderLinkID)))
		s.Committed(ctx, out)
		logger.Info("Payment link issued", "payment_id", p.ProviderLinkID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Confirm polls the provider for the active payment of code and captures it
// when the provider reports it completed. Any other provider status leaves
// the payment untouched.
func (s *Service) Confirm(ctx context.Context, code string) error {
	var out *service.Outcome
	err := s.Tx.Lock(ctx, code, func(ctx context.Context) error {
		var linkID string
		err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			p, err := service.ActivePayment(ctx, uow, code)
			if err != nil {
				return err
			}
			if p.State != state.PaymentIssued {
				return pay.ErrAlreadyPaid
			}
			linkID = p.ProviderLinkID
			return nil
		})
		if err != nil {
			return err
		}

		var st *provider.LinkState
		err = s.CallProvider(ctx, "poll_status", func(ctx context.Context) error {
			st, err = s.Provider.PollStatus(ctx, linkID)
			return err
		})
		if err != nil {
			return err
		}
		if st.Status != provider.LinkCompleted {
			s.Logger.Info("Payment not completed at provider",
				"transaction_code", code, "provider_status", st.Status)
			return pay.ErrNotCompleted
		}

		return s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			out = &service.Outcome{}
			p, err := service.ActivePayment(ctx, uow, code)
			if err != nil {
				return err
			}
			captured, err := s.capture(ctx, uow, p, st.PaymentIntentID, out)
			if err != nil {
				return err
			}
			if !captured {
				return pay.ErrAlreadyPaid
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.Committed(ctx, out)
	return nil
}

// HandleEvent applies a verified webhook event to the payment its link was
// issued for. Each provider event id is applied at most once; redeliveries
// return nil without side effects. Events that match no escrow payment are
// acknowledged so the provider stops redelivering them. A capture reported
// for a retired link is flagged on that payment and never advances the
// transaction. Other errors are returned so the provider redelivers.
func (s *Service) HandleEvent(ctx context.Context, evt provider.Event) error {
	if evt == nil {
		return nil
	}
	logger := s.Logger.With(
		"event_id", evt.EventID(),
		"event_kind", provider.KindOf(evt))
	target, err := s.resolvePayment(ctx, evt, logger)
	if err != nil {
		logger.Error("Failed to resolve webhook payment", "error", err)
		return err
	}
	if target == nil {
		logger.Warn("Webhook event matches no escrow payment; acknowledging",
			"transaction_code", evt.Reference(),
			"payment_ref", evt.PaymentReference())
		return nil
	}
	code := target.TransactionCode
	logger = logger.With("transaction_code", code, "payment_id", target.ID)

	var out *service.Outcome
	err = s.Tx.Execute(ctx, code, func(uow repository.UnitOfWork) error {
		out = &service.Outcome{}
		eventRepo, err := uow.ProviderEventRepository()
		if err != nil {
			return err
		}
		fresh, err := eventRepo.MarkProcessed(ctx, evt.EventID(), provider.KindOf(evt), code)
		if err != nil {
			return err
		}
		if !fresh {
			logger.Info("Duplicate webhook event ignored")
			return nil
		}
		payRepo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		p, err := payRepo.GetByID(ctx, target.ID)
		if err != nil {
			return err
		}

		switch e := evt.(type) {
		case provider.CheckoutCompleted:
			if !e.Paid {
				logger.Info("Checkout completed without payment; awaiting payment_intent events")
				return nil
			}
			return s.applyCapture(ctx, uow, p, e.PaymentIntentID, out, logger)
		case provider.PaymentSucceeded:
			return s.applyCapture(ctx, uow, p, e.PaymentIntentID, out, logger)
		case provider.PaymentFailed:
			if !p.IsActive {
				logger.Info("Failure reported for a retired link; ignoring")
				return nil
			}
			return s.markFailed(ctx, uow, p, e, out)
		}
		return fmt.Errorf("%w: unhandled event %T", provider.ErrMalformedEvent, evt)
	})
	if err != nil {
		logger.Error("Failed to apply webhook event", "error", err)
		return err
	}
	s.Committed(ctx, out)
	return nil
}

// ResendUnlockCode sends the unlock code of a captured, uncompleted
// transaction to its buyer again. The code is never returned to the caller.
func (s *Service) ResendUnlockCode(ctx context.Context, code string) error {
	var notice *notify.UnlockCode
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tx, err := service.LoadTransaction(ctx, uow, code)
		if err != nil {
			return err
		}
		if tx.State() == state.TransactionCompleted {
			return pay.ErrAlreadyProcessed
		}
		p, err := service.ActivePayment(ctx, uow, code)
		if err != nil {
			return err
		}
		if p.State != state.PaymentCaptured {
			return pay.ErrNotCompleted
		}
		n, err := unlockNotice(ctx, uow, tx.Header.BuyerUsername, p)
		if err != nil {
			return err
		}
		notice = &n
		return nil
	})
	if err != nil {
		return err
	}
	return s.SendUnlockCode(ctx, *notice)
}

// Status returns the active payment of code.
func (s *Service) Status(ctx context.Context, code string) (*StatusView, error) {
	var view *StatusView
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		p, err := service.ActivePayment(ctx, uow, code)
		if err != nil {
			return err
		}
		st, err := s.States.PaymentState(p.State)
		if err != nil {
			return err
		}
		view = &StatusView{
			TransactionCode: code,
			PaymentURL:      p.PaymentURL,
			PaymentID:       p.ProviderLinkID,
			State:           st.Code,
			StateName:       st.Description,
			PaymentStatus:   p.PaymentStatus,
			Amount:          p.Amount,
			Currency:        p.Currency.String(),
		}
		return nil
	})
	return view, err
}

// applyCapture captures p when it still backs its transaction and flags it
// otherwise.
func (s *Service) applyCapture(
	ctx context.Context,
	uow repository.UnitOfWork,
	p *pay.Payment,
	paymentIntentID string,
	out *service.Outcome,
	logger *slog.Logger,
) error {
	if !p.IsActive {
		return s.flagRetiredCapture(ctx, uow, p, paymentIntentID, out, logger)
	}
	_, err := s.capture(ctx, uow, p, paymentIntentID, out)
	return err
}

// flagRetiredCapture records money taken on a retired link. The funds stay
// at the provider outside the escrow flow until an operator refunds them.
func (s *Service) flagRetiredCapture(
	ctx context.Context,
	uow repository.UnitOfWork,
	p *pay.Payment,
	paymentIntentID string,
	out *service.Outcome,
	logger *slog.Logger,
) error {
	if p.State != state.PaymentIssued {
		return nil
	}
	if !p.FlagRetiredCapture(paymentIntentID, s.Now()) {
		logger.Info("Capture on retired link already flagged")
		return nil
	}
	repo, err := uow.PaymentRepository()
	if err != nil {
		return err
	}
	if err := repo.Update(ctx, p); err != nil {
		return err
	}
	logger.Error("Payment captured on a retired link; refund it manually",
		"link_id", p.ProviderLinkID,
		"payment_intent_id", p.ProviderPaymentIntentID,
		"amount", money.Format(p.Amount))
	out.Emit(events.New(events.PaymentCapturedOnRetiredLink, p.TransactionCode,
		events.WithAmount(p.Amount),
		events.WithAttr("payment_id", p.ID.String()),
		events.WithAttr("link_id", p.ProviderLinkID),
		events.WithAttr("payment_intent_id", p.ProviderPaymentIntentID)))
	return nil
}

// capture moves the active payment p to TPS-02, advances the transaction
// from TS-01 to TS-02, releases inventory once and queues the unlock code
// for the buyer. It reports false without changes when the provider already
// confirmed the payment.
func (s *Service) capture(
	ctx context.Context,
	uow repository.UnitOfWork,
	p *pay.Payment,
	paymentIntentID string,
	out *service.Outcome,
) (bool, error) {
	now := s.Now()
	code := p.TransactionCode
	if p.State.IsProviderConfirmed() {
		return false, nil
	}
	from := p.State
	if err := p.Capture(paymentIntentID, now); err != nil {
		return false, err
	}
	payRepo, err := uow.PaymentRepository()
	if err != nil {
		return false, err
	}
	if err := payRepo.Update(ctx, p); err != nil {
		return false, err
	}
	out.Transition("payment", string(from), string(p.State))

	tx, err := service.LoadTransaction(ctx, uow, code)
	if err != nil {
		return false, err
	}
	if tx.State() == state.TransactionCreated {
		entries, err := tx.Advance(state.TransactionAccepted, tx.Version(), tx.Terms(), now)
		if err != nil {
			return false, err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return false, err
		}
		if err := txRepo.AppendEntries(ctx, entries...); err != nil {
			return false, err
		}
		out.Transition("transaction", string(state.TransactionCreated), string(state.TransactionAccepted))
	}
	if _, err := service.ReleaseInventory(ctx, uow, tx); err != nil {
		return false, err
	}
	notice, err := unlockNotice(ctx, uow, tx.Header.BuyerUsername, p)
	if err != nil {
		return false, err
	}
	out.Notify(notice)

	s.Logger.Info("Payment captured",
		"transaction_code", code,
		"payment_intent_id", p.ProviderPaymentIntentID)
	out.Emit(events.New(events.PaymentCaptured, code,
		events.WithAmount(p.Amount),
		events.WithAttr("payment_intent_id", p.ProviderPaymentIntentID)))
	return true, nil
}

// unlockNotice addresses the unlock code of p to the buyer. A buyer profile
// that is gone still gets the notice by username.
func unlockNotice(
	ctx context.Context,
	uow repository.UnitOfWork,
	buyer string,
	p *pay.Payment,
) (notify.UnlockCode, error) {
	n := notify.UnlockCode{
		TransactionCode: p.TransactionCode,
		BuyerUsername:   buyer,
		UnlockCode:      p.UnlockCode,
		Amount:          p.Amount,
		Currency:        p.Currency.String(),
	}
	profile, err := service.LoadProfile(ctx, uow, buyer)
	switch {
	case errors.Is(err, pay.ErrProfileNotFound):
	case err != nil:
		return notify.UnlockCode{}, err
	default:
		n.BuyerEmail = profile.Email
	}
	return n, nil
}

func (s *Service) markFailed(
	ctx context.Context,
	uow repository.UnitOfWork,
	p *pay.Payment,
	e provider.PaymentFailed,
	out *service.Outcome,
) error {
	code := p.TransactionCode
	if p.State != state.PaymentIssued {
		return nil
	}
	p.MarkFailed(s.Now())
	repo, err := uow.PaymentRepository()
	if err != nil {
		return err
	}
	if err := repo.Update(ctx, p); err != nil {
		return err
	}
	out.Emit(events.New(events.PaymentFailed, code, events.WithAttr("reason", e.Reason)))
	return nil
}

// resolvePayment finds the payment evt was issued for: by the payment id
// echoed in the link metadata, else by the checkout link id. It returns nil
// when the event names no escrow payment or names one of another
// transaction.
func (s *Service) resolvePayment(
	ctx context.Context,
	evt provider.Event,
	logger *slog.Logger,
) (*pay.Payment, error) {
	var found *pay.Payment
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		var p *pay.Payment
		switch ref, link := evt.PaymentReference(), linkOf(evt); {
		case ref != "":
			id, perr := uuid.Parse(ref)
			if perr != nil {
				logger.Warn("Webhook payment reference is not a payment id", "payment_ref", ref)
				return nil
			}
			p, err = repo.GetByID(ctx, id)
		case link != "":
			p, err = repo.GetByProviderLinkID(ctx, link)
		default:
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if code := evt.Reference(); code != "" && code != p.TransactionCode {
			logger.Warn("Webhook transaction code disagrees with its payment",
				"transaction_code", code,
				"payment_transaction_code", p.TransactionCode)
			return nil
		}
		found = p
		return nil
	})
	return found, err
}

func linkOf(evt provider.Event) string {
	if cc, ok := evt.(provider.CheckoutCompleted); ok {
		return cc.LinkID
	}
	return ""
}
