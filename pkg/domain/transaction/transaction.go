// Package transaction models an escrow transaction: a header per transaction
// code, the line items it settles and append-only settlement entries.
//
// A transaction with a single line item is a direct sale that the buyer and
// seller may negotiate. A cart checkout groups line items from one or more
// sellers under one code; its terms are fixed by the cart.
package transaction

import (
	"cmp"
	"slices"
	"time"

	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Header is the stable identity of a settlement group. Parties and line
// items are frozen when the header is created.
type Header struct {
	Sequence          uint64
	Code              string
	BuyerUsername     string
	ShoppingCartCode  string
	Lines             []LineItem
	InventoryReleased bool
	CreatedAt         time.Time
	IsActive          bool
}

// LineItem is one product bought from one seller. Description and UnitPrice
// are snapshots taken at creation and never follow later catalog edits.
type LineItem struct {
	ID               uuid.UUID
	SellerUsername   string
	ProfileProductID uuid.UUID
	Description      string
	Units            int64
	UnitPrice        decimal.Decimal
}

// Amount is units times the unit price, rounded to cents.
func (l LineItem) Amount() decimal.Decimal {
	return money.Round2(l.UnitPrice.Mul(decimal.NewFromInt(l.Units)))
}

// Entry is one settlement row. Entries are never mutated; every lifecycle
// step appends one sell entry per seller and one buy entry.
type Entry struct {
	ID               uuid.UUID
	Code             string
	Username         string
	IsBuyTransaction bool
	Version          int
	Revision         int
	Units            int64
	Amount           decimal.Decimal
	State            state.TransactionCode
	CreatedAt        time.Time
	IsActive         bool
}

// Transaction is the aggregate read by the lifecycle engine.
type Transaction struct {
	Header  Header
	Entries []Entry
}

// Terms are the commercial terms of one negotiation round.
type Terms struct {
	Units  int64
	Amount decimal.Decimal
}

// Share is the part of the current terms owed to one seller.
type Share struct {
	SellerUsername string
	Units          int64
	Amount         decimal.Decimal
}

// Allocation is a stock decrement for one profile product.
type Allocation struct {
	ProfileProductID uuid.UUID
	Units            int64
}

// SortEntries orders entries from most to least recent: CreatedAt
// descending, then Revision descending.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Revision, a.Revision)
	})
}

// CartTerms sums the line items.
func CartTerms(lines []LineItem) Terms {
	t := Terms{Amount: decimal.Zero}
	for _, l := range lines {
		t.Units += l.Units
		t.Amount = t.Amount.Add(l.Amount())
	}
	return t
}

// Latest returns the most recent active entry.
func (t *Transaction) Latest() (Entry, bool) {
	active := make([]Entry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.IsActive {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return Entry{}, false
	}
	SortEntries(active)
	return active[0], true
}

// State returns the state of the most recent entry.
func (t *Transaction) State() state.TransactionCode {
	e, ok := t.Latest()
	if !ok {
		return ""
	}
	return e.State
}

// Version returns the current negotiation round.
func (t *Transaction) Version() int {
	v := 0
	for _, e := range t.Entries {
		if e.IsActive && e.Version > v {
			v = e.Version
		}
	}
	return v
}

// NextRevision is the revision assigned to the next appended entry.
func (t *Transaction) NextRevision() int {
	r := 0
	for _, e := range t.Entries {
		r = max(r, e.Revision)
	}
	return r + 1
}

// Terms returns the buyer-side terms of the most recent entry.
func (t *Transaction) Terms() Terms {
	e, ok := t.Latest()
	if !ok {
		return Terms{}
	}
	return Terms{Units: e.Units, Amount: e.Amount}
}

// Sellers returns the distinct sellers in line item order.
func (h Header) Sellers() []string {
	var out []string
	for _, l := range h.Lines {
		if !slices.Contains(out, l.SellerUsername) {
			out = append(out, l.SellerUsername)
		}
	}
	return out
}

// Sellers returns the distinct sellers of the header.
func (t *Transaction) Sellers() []string {
	return t.Header.Sellers()
}

// IsNegotiable reports whether the terms may change after creation. Only a
// single line item sold by one seller is negotiated.
func (t *Transaction) IsNegotiable() bool {
	return len(t.Header.Lines) == 1 && t.Header.ShoppingCartCode == ""
}

// IsParty reports whether username is the buyer or one of the sellers.
func (t *Transaction) IsParty(username string) bool {
	return username == t.Header.BuyerUsername || slices.Contains(t.Sellers(), username)
}

// Counterparty returns the other party of username in a direct sale.
func (t *Transaction) Counterparty(username string) string {
	if username != t.Header.BuyerUsername {
		return t.Header.BuyerUsername
	}
	if sellers := t.Sellers(); len(sellers) > 0 {
		return sellers[0]
	}
	return ""
}

// Shares splits terms per seller. A negotiable sale gives its only seller
// the whole terms; a cart pays each seller the sum of their line items.
func (t *Transaction) Shares(terms Terms) []Share {
	sellers := t.Sellers()
	if t.IsNegotiable() {
		return []Share{{SellerUsername: sellers[0], Units: terms.Units, Amount: terms.Amount}}
	}
	out := make([]Share, 0, len(sellers))
	for _, seller := range sellers {
		s := Share{SellerUsername: seller, Amount: decimal.Zero}
		for _, l := range t.Header.Lines {
			if l.SellerUsername == seller {
				s.Units += l.Units
				s.Amount = s.Amount.Add(l.Amount())
			}
		}
		out = append(out, s)
	}
	return out
}

// Allocations returns the stock to release for the current terms, one per
// line item. A negotiable sale releases the negotiated units.
func (t *Transaction) Allocations() []Allocation {
	if t.IsNegotiable() {
		return []Allocation{{ProfileProductID: t.Header.Lines[0].ProfileProductID, Units: t.Terms().Units}}
	}
	out := make([]Allocation, 0, len(t.Header.Lines))
	for _, l := range t.Header.Lines {
		out = append(out, Allocation{ProfileProductID: l.ProfileProductID, Units: l.Units})
	}
	return out
}

// Advance validates the transition and returns the entries that record it.
// The caller persists them; the aggregate is updated in place.
func (t *Transaction) Advance(to state.TransactionCode, version int, terms Terms, now time.Time) ([]Entry, error) {
	from := t.State()
	if err := state.ValidateTransactionTransition(from, to); err != nil {
		return nil, err
	}
	return t.appendRound(to, version, terms, now), nil
}

// appendRound writes one sell entry per seller followed by the buy entry,
// so the buy entry carries the highest revision of the round.
func (t *Transaction) appendRound(to state.TransactionCode, version int, terms Terms, now time.Time) []Entry {
	rev := t.NextRevision()
	shares := t.Shares(terms)
	round := make([]Entry, 0, len(shares)+1)
	for i, s := range shares {
		round = append(round, Entry{
			ID:        uuid.New(),
			Code:      t.Header.Code,
			Username:  s.SellerUsername,
			Version:   version,
			Revision:  rev + i,
			Units:     s.Units,
			Amount:    s.Amount,
			State:     to,
			CreatedAt: now,
			IsActive:  true,
		})
	}
	round = append(round, Entry{
		ID:               uuid.New(),
		Code:             t.Header.Code,
		Username:         t.Header.BuyerUsername,
		IsBuyTransaction: true,
		Version:          version,
		Revision:         rev + len(shares),
		Units:            terms.Units,
		Amount:           terms.Amount,
		State:            to,
		CreatedAt:        now,
		IsActive:         true,
	})
	t.Entries = append(t.Entries, round...)
	return round
}

// New builds a transaction in TS-01 with its first negotiation round.
func New(h Header, terms Terms, now time.Time) (*Transaction, []Entry) {
	h.CreatedAt = now
	h.IsActive = true
	t := &Transaction{Header: h}
	entries := t.appendRound(state.TransactionCreated, 1, terms, now)
	return t, entries
}
