// Package catalog models the profile and inventory collaborators the escrow
// core reads from: parties, the seller's listed products and their prices.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is a marketplace user able to buy or sell.
type Profile struct {
	ID              uuid.UUID
	Username        string
	Email           string
	IsActive        bool
	PayoutAccountID string
	CreatedAt       time.Time
}

// HasPayoutAccount reports whether transfers can be sent to the profile.
func (p *Profile) HasPayoutAccount() bool {
	return p.PayoutAccountID != ""
}

// ProfileProduct is a seller's stock of one product.
type ProfileProduct struct {
	ID            uuid.UUID
	OwnerUsername string
	Description   string
	Units         int64
	IsActive      bool
}

// HasUnits reports whether at least units are in stock.
func (p *ProfileProduct) HasUnits(units int64) bool {
	return units > 0 && p.Units >= units
}

// Price is one entry of a profile product's price history. The most
// recently created price is current.
type Price struct {
	ID               uuid.UUID
	ProfileProductID uuid.UUID
	Price            decimal.Decimal
	CreatedAt        time.Time
}
