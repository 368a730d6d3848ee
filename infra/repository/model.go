package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UUID columns are stored as char(36) so the same models migrate on
// PostgreSQL and MySQL.

// TransactionSequence hands out transaction code sequences.
type TransactionSequence struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
}

// TableName specifies the table name for the TransactionSequence model.
func (TransactionSequence) TableName() string { return "transaction_sequences" }

// TransactionHeader represents the stable identity of a transaction.
type TransactionHeader struct {
	Sequence          uint64 `gorm:"primaryKey;autoIncrement:false"`
	Code              string `gorm:"uniqueIndex;size:16;not null"`
	BuyerUsername     string `gorm:"index;size:50;not null"`
	ShoppingCartCode  string `gorm:"size:32"`
	InventoryReleased bool   `gorm:"not null"`
	IsActive          bool   `gorm:"not null"`
	CreatedAt         time.Time
}

// TableName specifies the table name for the TransactionHeader model.
func (TransactionHeader) TableName() string { return "transaction_headers" }

// TransactionLineItem is one product of a settlement group, frozen at creation.
type TransactionLineItem struct {
	ID               uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Code             string          `gorm:"index;size:16;not null"`
	Position         int             `gorm:"not null"`
	SellerUsername   string          `gorm:"index;size:50;not null"`
	ProfileProductID uuid.UUID       `gorm:"type:char(36);not null"`
	Description      string          `gorm:"size:255"`
	Units            int64           `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
}

// TableName specifies the table name for the TransactionLineItem model.
func (TransactionLineItem) TableName() string { return "transaction_line_items" }

// TransactionEntry represents one append-only settlement row.
type TransactionEntry struct {
	ID               uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Code             string          `gorm:"index:idx_entry_code_order,priority:1;size:16;not null"`
	Username         string          `gorm:"size:50;not null"`
	IsBuyTransaction bool            `gorm:"not null"`
	Version          int             `gorm:"not null"`
	Revision         int             `gorm:"index:idx_entry_code_order,priority:3;not null"`
	Units            int64           `gorm:"not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	StateID          uint            `gorm:"not null"`
	IsActive         bool            `gorm:"not null"`
	CreatedAt        time.Time       `gorm:"index:idx_entry_code_order,priority:2"`
}

// TableName specifies the table name for the TransactionEntry model.
func (TransactionEntry) TableName() string { return "transaction_entries" }

// TransactionDecision represents one negotiation decision.
type TransactionDecision struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	Code       string    `gorm:"uniqueIndex:idx_decision_key,priority:1;size:16;not null"`
	Version    int       `gorm:"uniqueIndex:idx_decision_key,priority:2;not null"`
	Username   string    `gorm:"uniqueIndex:idx_decision_key,priority:3;size:50;not null"`
	IsAccepted bool      `gorm:"not null"`
	CreatedAt  time.Time
}

// TableName specifies the table name for the TransactionDecision model.
func (TransactionDecision) TableName() string { return "transaction_decisions" }

// TransactionPayment represents an escrow payment.
type TransactionPayment struct {
	ID                      uuid.UUID       `gorm:"type:char(36);primaryKey"`
	TransactionCode         string          `gorm:"index;size:16;not null"`
	Amount                  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency                string          `gorm:"type:varchar(3);not null;default:'HNL'"`
	UnlockCode              string          `gorm:"size:64;not null"`
	SecurityCode            string          `gorm:"size:64;not null"`
	ProviderLinkID          string          `gorm:"index;size:255"`
	ProviderPaymentIntentID string          `gorm:"size:255"`
	ProviderTransferID      string          `gorm:"size:255"`
	ProviderRefundID        string          `gorm:"size:255"`
	PaymentURL              string          `gorm:"type:text"`
	StateID                 uint            `gorm:"not null"`
	PaymentStatus           string          `gorm:"type:varchar(32);not null;default:'pending'"`
	IsProviderPayment       bool            `gorm:"not null"`
	IsActive                bool            `gorm:"not null"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TableName specifies the table name for the TransactionPayment model.
func (TransactionPayment) TableName() string { return "transaction_payments" }

// TransactionPayout is one transfer of escrowed funds to one seller.
type TransactionPayout struct {
	ID             uuid.UUID       `gorm:"type:char(36);primaryKey"`
	PaymentID      uuid.UUID       `gorm:"type:char(36);uniqueIndex:idx_payout_seller,priority:1;not null"`
	SellerUsername string          `gorm:"uniqueIndex:idx_payout_seller,priority:2;size:50;not null"`
	TransferID     string          `gorm:"size:255;not null"`
	TransferStatus string          `gorm:"size:32;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Commission     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt      time.Time
}

// TableName specifies the table name for the TransactionPayout model.
func (TransactionPayout) TableName() string { return "transaction_payouts" }

// ProcessedProviderEvent records a webhook delivery that was handled.
type ProcessedProviderEvent struct {
	EventID         string `gorm:"primaryKey;size:255"`
	Kind            string `gorm:"size:64;not null"`
	TransactionCode string `gorm:"size:16"`
	CreatedAt       time.Time
}

// TableName specifies the table name for the ProcessedProviderEvent model.
func (ProcessedProviderEvent) TableName() string { return "processed_provider_events" }

// TransactionState is a row of the transaction state registry.
type TransactionState struct {
	ID          uint   `gorm:"primaryKey;autoIncrement:false"`
	Code        string `gorm:"uniqueIndex;size:8;not null"`
	Description string `gorm:"size:64"`
	IsActive    bool   `gorm:"not null"`
}

// TableName specifies the table name for the TransactionState model.
func (TransactionState) TableName() string { return "transaction_states" }

// PaymentState is a row of the payment state registry.
type PaymentState struct {
	ID          uint   `gorm:"primaryKey;autoIncrement:false"`
	Code        string `gorm:"uniqueIndex;size:8;not null"`
	Description string `gorm:"size:64"`
	IsActive    bool   `gorm:"not null"`
}

// TableName specifies the table name for the PaymentState model.
func (PaymentState) TableName() string { return "transaction_payment_states" }

// Profile represents a marketplace user.
type Profile struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey"`
	Username        string    `gorm:"uniqueIndex;size:50;not null"`
	Email           string    `gorm:"size:255"`
	IsActive        bool      `gorm:"not null"`
	PayoutAccountID string    `gorm:"size:255"`
	CreatedAt       time.Time
}

// TableName specifies the table name for the Profile model.
func (Profile) TableName() string { return "profiles" }

// ProfileProduct represents a seller's stock of one product.
type ProfileProduct struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	OwnerUsername string    `gorm:"index;size:50;not null"`
	Description   string    `gorm:"size:255"`
	Units         int64     `gorm:"not null;default:0"`
	IsActive      bool      `gorm:"not null"`
}

// TableName specifies the table name for the ProfileProduct model.
func (ProfileProduct) TableName() string { return "profile_products" }

// ProfileProductPrice is one entry of a product's price history.
type ProfileProductPrice struct {
	ID               uuid.UUID       `gorm:"type:char(36);primaryKey"`
	ProfileProductID uuid.UUID       `gorm:"type:char(36);index;not null"`
	Price            decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt        time.Time
}

// TableName specifies the table name for the ProfileProductPrice model.
func (ProfileProductPrice) TableName() string { return "profile_product_prices" }

// Models lists every table managed by the escrow schema.
func Models() []any {
	return []any{
		&TransactionSequence{},
		&TransactionState{},
		&PaymentState{},
		&TransactionHeader{},
		&TransactionLineItem{},
		&TransactionEntry{},
		&TransactionDecision{},
		&TransactionPayment{},
		&TransactionPayout{},
		&ProcessedProviderEvent{},
		&Profile{},
		&ProfileProduct{},
		&ProfileProductPrice{},
	}
}
