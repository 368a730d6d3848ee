// Package settlement releases escrowed funds to the sellers or refunds them
// to the buyer. Both paths retain the platform commission.
package settlement

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/events"
	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/settlement"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/money"
	provider "github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/amirasaad/escrow/pkg/service"
	"github.com/google/uuid"
)

// Transfer is the payout of one seller.
type Transfer struct {
	SellerUsername string               `json:"sellerUsername"`
	TransferID     string               `json:"transferId"`
	TransferStatus string               `json:"transferStatus"`
	Breakdown      settlement.Breakdown `json:"breakdown"`
}

// Release is the result of paying the sellers. TransferID and
// TransferStatus describe the last transfer; Transfers lists the ones made
// by this call.
type Release struct {
	TransactionCode string               `json:"transactionCode"`
	TransferID      string               `json:"transferId"`
	TransferStatus  string               `json:"transferStatus"`
	Breakdown       settlement.Breakdown `json:"breakdown"`
	Transfers       []Transfer           `json:"transfers"`
}

// RefundResult is the result of a refund to the buyer.
type RefundResult struct {
	TransactionCode string               `json:"transactionCode"`
	RefundID        string               `json:"refundId"`
	RefundStatus    string               `json:"refundStatus"`
	Breakdown       settlement.Breakdown `json:"breakdown"`
}

// Summary is the commission breakdown of a transaction.
type Summary struct {
	TransactionCode string               `json:"transactionCode"`
	PaymentState    string               `json:"paymentState,omitempty"`
	Currency        string               `json:"currency"`
	Breakdown       settlement.Breakdown `json:"breakdown"`
}

// Service provides settlement operations.
type Service struct {
	service.Base
}

// New creates a settlement service.
func New(deps service.Deps) *Service {
	return &Service{Base: service.NewBase(deps, "settlement")}
}

// payee is a seller still owed a share of the payment.
type payee struct {
	share   transaction.Share
	account string
}

// ChargeToSeller transfers each seller's share minus commission to their
// payout account. Every accepted transfer is recorded as a payout so a
// retry only pays the sellers still owed. Once all sellers are paid the
// payment moves to TPS-03. A seller without a payout account is skipped and
// reported as pay.ErrNoPayoutAccount after the others are paid; a rejected
// transfer is returned as a *settlement.StatusError.
func (s *Service) ChargeToSeller(ctx context.Context, code string) (*Release, error) {
	logger := s.Logger.With("transaction_code", code)
	var release *Release
	err := s.Tx.Lock(ctx, code, func(ctx context.Context) error {
		var (
			p       *pay.Payment
			payees  []payee
			missing []string
		)
		err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			tx, err := service.LoadTransaction(ctx, uow, code)
			if err != nil {
				return err
			}
			if tx.State() != state.TransactionCompleted {
				return pay.ErrNotReleasable
			}
			p, err = service.ActivePayment(ctx, uow, code)
			if err != nil {
				return err
			}
			if p.PaymentStatus == pay.StatusTransferred {
				return pay.ErrAlreadyTransferred
			}
			if p.State != state.PaymentCaptured {
				return pay.ErrNotCaptured
			}
			for _, share := range tx.Shares(tx.Terms()) {
				if p.PaidSeller(share.SellerUsername) {
					continue
				}
				seller, err := service.LoadProfile(ctx, uow, share.SellerUsername)
				if err != nil {
					return err
				}
				if !seller.HasPayoutAccount() {
					missing = append(missing, share.SellerUsername)
					continue
				}
				payees = append(payees, payee{share: share, account: seller.PayoutAccountID})
			}
			return nil
		})
		if err != nil {
			return err
		}

		release = &Release{TransactionCode: code, Breakdown: settlement.Calculate(p.Amount)}
		for _, pe := range payees {
			t, err := s.paySeller(ctx, p, pe)
			if err != nil {
				return err
			}
			release.Transfers = append(release.Transfers, *t)
			release.TransferID = t.TransferID
			release.TransferStatus = t.TransferStatus
		}
		if len(missing) > 0 {
			logger.Warn("Sellers without payout account left unpaid", "sellers", strings.Join(missing, ","))
			return pay.ErrNoPayoutAccount
		}

		out := &service.Outcome{}
		err = s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			current, err := service.ActivePayment(ctx, uow, code)
			if err != nil {
				return err
			}
			if release.TransferID == "" && len(current.Payouts) > 0 {
				last := current.Payouts[len(current.Payouts)-1]
				release.TransferID, release.TransferStatus = last.TransferID, last.TransferStatus
			}
			if err := current.Release(release.TransferID, s.Now()); err != nil {
				return err
			}
			repo, err := uow.PaymentRepository()
			if err != nil {
				return err
			}
			if err := repo.Update(ctx, current); err != nil {
				return err
			}
			out.Transition("payment", string(state.PaymentCaptured), string(state.PaymentReleased))
			out.Emit(events.New(events.PaymentReleased, code,
				events.WithAmount(release.Breakdown.Net),
				events.WithAttr("transfer_id", release.TransferID),
				events.WithAttr("payouts", strconv.Itoa(len(current.Payouts))),
				events.WithAttr("platform_commission", money.Format(release.Breakdown.Commission))))
			return nil
		})
		if err != nil {
			return err
		}
		s.Committed(ctx, out)
		logger.Info("Funds released to sellers",
			"transfers", len(release.Transfers),
			"seller_amount", money.Format(release.Breakdown.Net),
			"platform_commission", money.Format(release.Breakdown.Commission))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return release, nil
}

// paySeller transfers pe's share minus commission and records the payout
// on p.
func (s *Service) paySeller(ctx context.Context, p *pay.Payment, pe payee) (*Transfer, error) {
	code := p.TransactionCode
	seller := pe.share.SellerUsername
	breakdown := settlement.Calculate(pe.share.Amount)
	minor, err := money.MinorUnits(breakdown.Net)
	if err != nil {
		return nil, err
	}
	var res *provider.Result
	err = s.CallProvider(ctx, "create_transfer", func(ctx context.Context) error {
		res, err = s.Provider.CreateTransfer(ctx, provider.TransferRequest{
			AmountMinor:          minor,
			Currency:             p.Currency.Provider(),
			DestinationAccountID: pe.account,
			Description:          "Pago por transacción " + code,
			GroupTag:             code,
			Metadata: map[string]string{
				"seller_username":     seller,
				"platform_commission": money.Format(breakdown.Commission),
				"original_amount":     money.Format(breakdown.Original),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := settlement.CheckTransfer(res.Status); err != nil {
		s.Logger.Warn("Transfer rejected by provider",
			"transaction_code", code,
			"seller", seller,
			"transfer_id", res.ID,
			"status", res.Status)
		return nil, err
	}

	err = s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		return repo.AddPayout(ctx, p.ID, pay.Payout{
			ID:             uuid.New(),
			SellerUsername: seller,
			TransferID:     res.ID,
			TransferStatus: res.Status,
			Amount:         breakdown.Net,
			Commission:     breakdown.Commission,
			CreatedAt:      s.Now(),
		})
	})
	if err != nil {
		s.Logger.Error("Transfer made but payout not recorded",
			"transaction_code", code,
			"seller", seller,
			"transfer_id", res.ID,
			"error", err)
		return nil, err
	}
	s.Logger.Info("Seller paid",
		"transaction_code", code,
		"seller", seller,
		"transfer_id", res.ID,
		"seller_amount", money.Format(breakdown.Net))
	return &Transfer{
		SellerUsername: seller,
		TransferID:     res.ID,
		TransferStatus: res.Status,
		Breakdown:      breakdown,
	}, nil
}

// Refund returns the payment amount minus commission to the buyer. Only a
// succeeded refund moves the payment to TPS-04; a pending refund is a
// retryable *settlement.StatusError.
func (s *Service) Refund(ctx context.Context, code, reason string) (*RefundResult, error) {
	logger := s.Logger.With("transaction_code", code)
	var result *RefundResult
	err := s.Tx.Lock(ctx, code, func(ctx context.Context) error {
		var p *pay.Payment
		err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			var err error
			p, err = service.ActivePayment(ctx, uow, code)
			if err != nil {
				return err
			}
			if p.State != state.PaymentCaptured {
				return pay.ErrNotCaptured
			}
			if p.ProviderPaymentIntentID == "" {
				return pay.ErrMissingPaymentIntent
			}
			return nil
		})
		if err != nil {
			return err
		}

		breakdown := settlement.Calculate(p.Amount)
		minor, err := money.MinorUnits(breakdown.Net)
		if err != nil {
			return err
		}
		var res *provider.Result
		err = s.CallProvider(ctx, "create_refund", func(ctx context.Context) error {
			res, err = s.Provider.CreateRefund(ctx, provider.RefundRequest{
				PaymentIntentID: p.ProviderPaymentIntentID,
				AmountMinor:     minor,
				Reason:          reason,
				Metadata: map[string]string{
					"transaction_code":    code,
					"platform_commission": money.Format(breakdown.Commission),
					"original_amount":     money.Format(breakdown.Original),
				},
			})
			return err
		})
		if err != nil {
			return err
		}
		if err := settlement.CheckRefund(res.Status); err != nil {
			logger.Warn("Refund not settled by provider", "refund_id", res.ID, "status", res.Status)
			return err
		}

		out := &service.Outcome{}
		err = s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			current, err := service.ActivePayment(ctx, uow, code)
			if err != nil {
				return err
			}
			if err := current.Refund(res.ID, s.Now()); err != nil {
				return err
			}
			repo, err := uow.PaymentRepository()
			if err != nil {
				return err
			}
			if err := repo.Update(ctx, current); err != nil {
				return err
			}
			out.Transition("payment", string(state.PaymentCaptured), string(state.PaymentRefunded))
			out.Emit(events.New(events.PaymentRefunded, code,
				events.WithAmount(breakdown.Net),
				events.WithAttr("refund_id", res.ID),
				events.WithAttr("reason", reason)))
			return nil
		})
		if err != nil {
			return err
		}
		s.Committed(ctx, out)
		result = &RefundResult{
			TransactionCode: code,
			RefundID:        res.ID,
			RefundStatus:    res.Status,
			Breakdown:       breakdown,
		}
		logger.Info("Payment refunded",
			"refund_id", res.ID,
			"refund_amount", money.Format(breakdown.Net))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Summary returns the commission breakdown of the active payment, or of the
// transaction's current amount when no payment exists yet.
func (s *Service) Summary(ctx context.Context, code string) (*Summary, error) {
	var out *Summary
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		p, err := service.ActivePayment(ctx, uow, code)
		switch {
		case err == nil:
			out = &Summary{
				TransactionCode: code,
				PaymentState:    string(p.State),
				Currency:        p.Currency.String(),
				Breakdown:       settlement.Calculate(p.Amount),
			}
			return nil
		case !errors.Is(err, pay.ErrNotFound):
			return err
		}
		tx, err := service.LoadTransaction(ctx, uow, code)
		if err != nil {
			return err
		}
		out = &Summary{
			TransactionCode: code,
			Currency:        s.Currency().String(),
			Breakdown:       settlement.Calculate(tx.Terms().Amount),
		}
		return nil
	})
	return out, err
}

// LinkPayoutAccount creates a connected account at the provider for
// username and stores its id on the profile.
func (s *Service) LinkPayoutAccount(ctx context.Context, username, email string) (string, error) {
	var accountID string
	err := s.Tx.Lock(ctx, "profile:"+username, func(ctx context.Context) error {
		err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			p, err := service.LoadProfile(ctx, uow, username)
			if err != nil {
				return err
			}
			if p.HasPayoutAccount() {
				return pay.ErrPayoutAccountExists
			}
			if email == "" {
				email = p.Email
			}
			return nil
		})
		if err != nil {
			return err
		}
		if email == "" {
			return domain.Validation("an email is required to create a payout account")
		}

		err = s.CallProvider(ctx, "create_payout_account", func(ctx context.Context) error {
			accountID, err = s.Provider.CreatePayoutAccount(ctx, provider.PayoutAccountRequest{
				Username: username,
				Email:    email,
			})
			return err
		})
		if err != nil {
			return err
		}

		return s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
			p, err := service.LoadProfile(ctx, uow, username)
			if err != nil {
				return err
			}
			p.PayoutAccountID = accountID
			repo, err := uow.CatalogRepository()
			if err != nil {
				return err
			}
			return repo.UpdateProfile(ctx, p)
		})
	})
	if err != nil {
		return "", err
	}
	s.Logger.Info("Payout account linked", "username", username, "account_id", accountID)
	return accountID, nil
}

