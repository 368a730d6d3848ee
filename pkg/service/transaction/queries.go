package transaction

import (
	"context"
	"errors"
	"time"

	pay "github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/amirasaad/escrow/pkg/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Detail is the read model of one transaction. The single-product fields
// are only filled for a direct sale; a cart lists its products in Lines.
type Detail struct {
	TransactionCode    string          `json:"transactionCode"`
	BuyerUsername      string          `json:"buyerUsername"`
	SellerUsername     string          `json:"sellerUsername,omitempty"`
	ProfileProductID   *uuid.UUID      `json:"profileProductId,omitempty"`
	ProductDescription string          `json:"productDescription,omitempty"`
	ShoppingCartCode   string          `json:"shoppingCartCode,omitempty"`
	Sellers            []string        `json:"sellers"`
	Lines              []LineView      `json:"lines"`
	Units              int64           `json:"units"`
	Amount             decimal.Decimal `json:"amount"`
	State              string          `json:"state"`
	StateDescription   string          `json:"stateDescription"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"createdAt"`
	Payment            *PaymentView    `json:"payment,omitempty"`
	Entries            []EntryView     `json:"entries,omitempty"`
	Decisions          []DecisionView  `json:"decisions,omitempty"`
}

// LineView is one product of the transaction.
type LineView struct {
	SellerUsername   string          `json:"sellerUsername"`
	ProfileProductID uuid.UUID       `json:"profileProductId"`
	Description      string          `json:"description"`
	Units            int64           `json:"units"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	Amount           decimal.Decimal `json:"amount"`
}

// PaymentView summarizes the active payment. Unlock and security codes are
// never part of it; the buyer receives the unlock code through the notifier.
type PaymentView struct {
	PaymentID     string `json:"paymentId"`
	PaymentURL    string `json:"paymentUrl"`
	State         string `json:"state"`
	PaymentStatus string `json:"paymentStatus"`
}

// EntryView is one settlement row.
type EntryView struct {
	Username         string          `json:"username"`
	IsBuyTransaction bool            `json:"isBuyTransaction"`
	Version          int             `json:"version"`
	Revision         int             `json:"revision"`
	Units            int64           `json:"units"`
	Amount           decimal.Decimal `json:"amount"`
	State            string          `json:"state"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// DecisionView is one negotiation decision.
type DecisionView struct {
	Username   string    `json:"username"`
	Version    int       `json:"version"`
	IsAccepted bool      `json:"isAccepted"`
	CreatedAt  time.Time `json:"createdAt"`
}

// List returns the transactions where username is the buyer or one of the
// sellers, newest first.
func (s *Service) List(ctx context.Context, username string) ([]Detail, error) {
	out := []Detail{}
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, err := repo.ListByUser(ctx, username)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			d, err := s.detail(ctx, uow, tx)
			if err != nil {
				return err
			}
			out = append(out, *d)
		}
		return nil
	})
	return out, err
}

// Get returns the transaction of code with its settlement rows and decision
// history.
func (s *Service) Get(ctx context.Context, code string) (*Detail, error) {
	var out *Detail
	err := s.Uow.Do(ctx, func(uow repository.UnitOfWork) error {
		tx, err := service.LoadTransaction(ctx, uow, code)
		if err != nil {
			return err
		}
		out, err = s.detail(ctx, uow, tx)
		if err != nil {
			return err
		}
		for _, e := range tx.Entries {
			out.Entries = append(out.Entries, EntryView{
				Username:         e.Username,
				IsBuyTransaction: e.IsBuyTransaction,
				Version:          e.Version,
				Revision:         e.Revision,
				Units:            e.Units,
				Amount:           e.Amount,
				State:            string(e.State),
				CreatedAt:        e.CreatedAt,
			})
		}
		decisions, err := s.decisions.History(ctx, uow, code)
		if err != nil {
			return err
		}
		for _, d := range decisions {
			out.Decisions = append(out.Decisions, DecisionView{
				Username:   d.Username,
				Version:    d.Version,
				IsAccepted: d.IsAccepted,
				CreatedAt:  d.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func (s *Service) detail(
	ctx context.Context,
	uow repository.UnitOfWork,
	tx *transaction.Transaction,
) (*Detail, error) {
	terms := tx.Terms()
	d := &Detail{
		TransactionCode:  tx.Header.Code,
		BuyerUsername:    tx.Header.BuyerUsername,
		ShoppingCartCode: tx.Header.ShoppingCartCode,
		Sellers:          tx.Sellers(),
		Lines:            make([]LineView, 0, len(tx.Header.Lines)),
		Units:            terms.Units,
		Amount:           terms.Amount,
		Version:          tx.Version(),
		CreatedAt:        tx.Header.CreatedAt,
	}
	for _, l := range tx.Header.Lines {
		d.Lines = append(d.Lines, LineView{
			SellerUsername:   l.SellerUsername,
			ProfileProductID: l.ProfileProductID,
			Description:      l.Description,
			Units:            l.Units,
			UnitPrice:        l.UnitPrice,
			Amount:           l.Amount(),
		})
	}
	if tx.IsNegotiable() {
		line := tx.Header.Lines[0]
		d.SellerUsername = line.SellerUsername
		d.ProfileProductID = &line.ProfileProductID
		d.ProductDescription = line.Description
	}
	if code := tx.State(); code != "" {
		st, err := s.States.TransactionState(code)
		if err != nil {
			return nil, err
		}
		d.State = st.Code
		d.StateDescription = st.Description
	}

	p, err := service.ActivePayment(ctx, uow, tx.Header.Code)
	switch {
	case errors.Is(err, pay.ErrNotFound):
		return d, nil
	case err != nil:
		return nil, err
	}
	d.Payment = &PaymentView{
		PaymentID:     p.ProviderLinkID,
		PaymentURL:    p.PaymentURL,
		State:         string(p.State),
		PaymentStatus: p.PaymentStatus,
	}
	return d, nil
}
