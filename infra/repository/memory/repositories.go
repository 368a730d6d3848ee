package memory

import (
	"context"
	"slices"

	"github.com/amirasaad/escrow/pkg/codegen"
	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/catalog"
	"github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/google/uuid"
)

type transactionRepo struct{ *repos }

func (r *transactionRepo) CreateHeader(ctx context.Context, h *transaction.Header) error {
	return r.run(ctx, func(d *data) error {
		code, err := codegen.TransactionCode(d.seq + 1)
		if err != nil {
			return err
		}
		if _, ok := d.headers[code]; ok {
			return domain.ErrAlreadyExists
		}
		d.seq++
		h.Sequence = d.seq
		h.Code = code
		for i := range h.Lines {
			if h.Lines[i].ID == uuid.Nil {
				h.Lines[i].ID = uuid.New()
			}
		}
		stored := *h
		stored.Lines = slices.Clone(h.Lines)
		d.headers[code] = stored
		return nil
	})
}

func (r *transactionRepo) UpdateHeader(ctx context.Context, h *transaction.Header) error {
	return r.run(ctx, func(d *data) error {
		cur, ok := d.headers[h.Code]
		if !ok {
			return domain.ErrNotFound
		}
		cur.InventoryReleased = h.InventoryReleased
		cur.IsActive = h.IsActive
		d.headers[h.Code] = cur
		return nil
	})
}

func (r *transactionRepo) GetHeader(ctx context.Context, code string) (*transaction.Header, error) {
	var out transaction.Header
	err := r.run(ctx, func(d *data) error {
		h, ok := d.headers[code]
		if !ok {
			return domain.ErrNotFound
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *transactionRepo) AppendEntries(ctx context.Context, entries ...transaction.Entry) error {
	return r.run(ctx, func(d *data) error {
		for _, e := range entries {
			if _, ok := d.headers[e.Code]; !ok {
				return domain.ErrNotFound
			}
			d.entries[e.Code] = append(d.entries[e.Code], e)
		}
		return nil
	})
}

func (r *transactionRepo) ListEntries(ctx context.Context, code string) ([]transaction.Entry, error) {
	var out []transaction.Entry
	err := r.run(ctx, func(d *data) error {
		out = slices.Clone(d.entries[code])
		return nil
	})
	transaction.SortEntries(out)
	return out, err
}

func (r *transactionRepo) Get(ctx context.Context, code string) (*transaction.Transaction, error) {
	var out *transaction.Transaction
	err := r.run(ctx, func(d *data) error {
		h, ok := d.headers[code]
		if !ok {
			return domain.ErrNotFound
		}
		entries := slices.Clone(d.entries[code])
		transaction.SortEntries(entries)
		out = &transaction.Transaction{Header: h, Entries: entries}
		return nil
	})
	return out, err
}

func (r *transactionRepo) ListByUser(ctx context.Context, username string) ([]*transaction.Transaction, error) {
	out := []*transaction.Transaction{}
	err := r.run(ctx, func(d *data) error {
		for code, h := range d.headers {
			if h.BuyerUsername != username && !slices.Contains(h.Sellers(), username) {
				continue
			}
			entries := slices.Clone(d.entries[code])
			transaction.SortEntries(entries)
			out = append(out, &transaction.Transaction{Header: h, Entries: entries})
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *transaction.Transaction) int {
		switch {
		case a.Header.Sequence > b.Header.Sequence:
			return -1
		case a.Header.Sequence < b.Header.Sequence:
			return 1
		}
		return 0
	})
	return out, err
}

type decisionRepo struct{ *repos }

func (r *decisionRepo) Append(ctx context.Context, dec transaction.Decision) error {
	return r.run(ctx, func(d *data) error {
		for _, existing := range d.decisions[dec.Code] {
			if existing.Version == dec.Version && existing.Username == dec.Username {
				return domain.ErrAlreadyExists
			}
		}
		d.decisions[dec.Code] = append(d.decisions[dec.Code], dec)
		return nil
	})
}

func (r *decisionRepo) ListByCode(ctx context.Context, code string) ([]transaction.Decision, error) {
	var out []transaction.Decision
	err := r.run(ctx, func(d *data) error {
		out = slices.Clone(d.decisions[code])
		return nil
	})
	return out, err
}

func (r *decisionRepo) ListByVersion(ctx context.Context, code string, version int) ([]transaction.Decision, error) {
	var out []transaction.Decision
	err := r.run(ctx, func(d *data) error {
		for _, dec := range d.decisions[code] {
			if dec.Version == version {
				out = append(out, dec)
			}
		}
		return nil
	})
	return out, err
}

type paymentRepo struct{ *repos }

func (r *paymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	return r.run(ctx, func(d *data) error {
		if _, ok := d.payments[p.ID]; ok {
			return domain.ErrAlreadyExists
		}
		stored := *p
		stored.Payouts = slices.Clone(p.Payouts)
		d.payments[p.ID] = stored
		return nil
	})
}

func (r *paymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	return r.run(ctx, func(d *data) error {
		cur, ok := d.payments[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		// payouts are only written through AddPayout
		stored := *p
		stored.Payouts = cur.Payouts
		d.payments[p.ID] = stored
		return nil
	})
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.latest(ctx, func(p payment.Payment) bool {
		return p.ID == id
	})
}

func (r *paymentRepo) AddPayout(ctx context.Context, paymentID uuid.UUID, po payment.Payout) error {
	return r.run(ctx, func(d *data) error {
		p, ok := d.payments[paymentID]
		if !ok {
			return domain.ErrNotFound
		}
		if p.PaidSeller(po.SellerUsername) {
			return domain.ErrAlreadyExists
		}
		if po.ID == uuid.Nil {
			po.ID = uuid.New()
		}
		p.Payouts = append(slices.Clone(p.Payouts), po)
		d.payments[paymentID] = p
		return nil
	})
}

func (r *paymentRepo) GetActiveByCode(ctx context.Context, code string) (*payment.Payment, error) {
	return r.latest(ctx, func(p payment.Payment) bool {
		return p.TransactionCode == code && p.IsActive
	})
}

func (r *paymentRepo) GetByProviderLinkID(ctx context.Context, linkID string) (*payment.Payment, error) {
	return r.latest(ctx, func(p payment.Payment) bool {
		return linkID != "" && p.ProviderLinkID == linkID
	})
}

func (r *paymentRepo) latest(ctx context.Context, match func(payment.Payment) bool) (*payment.Payment, error) {
	var out *payment.Payment
	err := r.run(ctx, func(d *data) error {
		for _, p := range d.payments {
			if !match(p) {
				continue
			}
			if out == nil || p.CreatedAt.After(out.CreatedAt) {
				cp := p
				cp.Payouts = slices.Clone(p.Payouts)
				out = &cp
			}
		}
		if out == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return out, err
}

type providerEventRepo struct{ *repos }

func (r *providerEventRepo) MarkProcessed(ctx context.Context, eventID, _, _ string) (bool, error) {
	fresh := false
	err := r.run(ctx, func(d *data) error {
		if _, ok := d.events[eventID]; ok {
			return nil
		}
		d.events[eventID] = struct{}{}
		fresh = true
		return nil
	})
	return fresh, err
}

type catalogRepo struct{ *repos }

func (r *catalogRepo) GetProfile(ctx context.Context, username string) (*catalog.Profile, error) {
	var out catalog.Profile
	err := r.run(ctx, func(d *data) error {
		p, ok := d.profiles[username]
		if !ok || !p.IsActive {
			return domain.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepo) UpdateProfile(ctx context.Context, p *catalog.Profile) error {
	return r.run(ctx, func(d *data) error {
		if _, ok := d.profiles[p.Username]; !ok {
			return domain.ErrNotFound
		}
		d.profiles[p.Username] = *p
		return nil
	})
}

func (r *catalogRepo) GetProfileProduct(ctx context.Context, id uuid.UUID) (*catalog.ProfileProduct, error) {
	var out catalog.ProfileProduct
	err := r.run(ctx, func(d *data) error {
		p, ok := d.products[id]
		if !ok || !p.IsActive {
			return domain.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *catalogRepo) LatestPrice(ctx context.Context, profileProductID uuid.UUID) (*catalog.Price, error) {
	var out *catalog.Price
	err := r.run(ctx, func(d *data) error {
		for _, p := range d.prices[profileProductID] {
			if out == nil || p.CreatedAt.After(out.CreatedAt) {
				cp := p
				out = &cp
			}
		}
		if out == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *catalogRepo) DecrementUnits(ctx context.Context, profileProductID uuid.UUID, units int64) error {
	return r.run(ctx, func(d *data) error {
		p, ok := d.products[profileProductID]
		if !ok || p.Units < units {
			return repository.ErrInsufficientStock
		}
		p.Units -= units
		d.products[profileProductID] = p
		return nil
	})
}

type stateRepo struct{ *repos }

func (r *stateRepo) TransactionStates(ctx context.Context) ([]state.State, error) {
	var out []state.State
	err := r.run(ctx, func(d *data) error {
		out = slices.Clone(d.txStates)
		return nil
	})
	return out, err
}

func (r *stateRepo) PaymentStates(ctx context.Context) ([]state.State, error) {
	var out []state.State
	err := r.run(ctx, func(d *data) error {
		out = slices.Clone(d.payStates)
		return nil
	})
	return out, err
}
