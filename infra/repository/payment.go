package repository

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db       *gorm.DB
	registry *state.Registry
}

// NewPaymentRepository creates a payment repository bound to db.
func NewPaymentRepository(db *gorm.DB, registry *state.Registry) repository.PaymentRepository {
	return &paymentRepository{db: db, registry: registry}
}

// Create implements repository.PaymentRepository.
func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	row, err := r.toModel(p)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

// Update implements repository.PaymentRepository.
func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	row, err := r.toModel(p)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Save(&row).Error
	})
}

// GetActiveByCode implements repository.PaymentRepository.
func (r *paymentRepository) GetActiveByCode(ctx context.Context, code string) (*payment.Payment, error) {
	return r.first(ctx, r.db.Where("transaction_code = ? AND is_active = ?", code, true))
}

// GetByID implements repository.PaymentRepository.
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.first(ctx, r.db.Where("id = ?", id))
}

// GetByProviderLinkID implements repository.PaymentRepository.
func (r *paymentRepository) GetByProviderLinkID(ctx context.Context, linkID string) (*payment.Payment, error) {
	return r.first(ctx, r.db.Where("provider_link_id = ?", linkID))
}

func (r *paymentRepository) first(ctx context.Context, q *gorm.DB) (*payment.Payment, error) {
	var row TransactionPayment
	if err := WrapError(func() error {
		return q.WithContext(ctx).Order("created_at DESC").First(&row).Error
	}); err != nil {
		return nil, err
	}
	p, err := r.toDomain(row)
	if err != nil {
		return nil, err
	}
	var payouts []TransactionPayout
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("payment_id = ?", p.ID).
			Order("created_at").
			Find(&payouts).Error
	}); err != nil {
		return nil, err
	}
	for _, m := range payouts {
		p.Payouts = append(p.Payouts, payment.Payout{
			ID:             m.ID,
			SellerUsername: m.SellerUsername,
			TransferID:     m.TransferID,
			TransferStatus: m.TransferStatus,
			Amount:         m.Amount,
			Commission:     m.Commission,
			CreatedAt:      m.CreatedAt,
		})
	}
	return p, nil
}

// AddPayout implements repository.PaymentRepository. The unique
// (payment_id, seller_username) index rejects a second payout to a seller.
func (r *paymentRepository) AddPayout(ctx context.Context, paymentID uuid.UUID, po payment.Payout) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	row := TransactionPayout{
		ID:             po.ID,
		PaymentID:      paymentID,
		SellerUsername: po.SellerUsername,
		TransferID:     po.TransferID,
		TransferStatus: po.TransferStatus,
		Amount:         po.Amount,
		Commission:     po.Commission,
		CreatedAt:      po.CreatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})
}

func (r *paymentRepository) toModel(p *payment.Payment) (TransactionPayment, error) {
	stateID, err := r.registry.PaymentID(p.State)
	if err != nil {
		return TransactionPayment{}, err
	}
	return TransactionPayment{
		ID:                      p.ID,
		TransactionCode:         p.TransactionCode,
		Amount:                  p.Amount,
		Currency:                p.Currency.String(),
		UnlockCode:              p.UnlockCode,
		SecurityCode:            p.SecurityCode,
		ProviderLinkID:          p.ProviderLinkID,
		ProviderPaymentIntentID: p.ProviderPaymentIntentID,
		ProviderTransferID:      p.ProviderTransferID,
		ProviderRefundID:        p.ProviderRefundID,
		PaymentURL:              p.PaymentURL,
		StateID:                 stateID,
		PaymentStatus:           p.PaymentStatus,
		IsProviderPayment:       p.IsProviderPayment,
		IsActive:                p.IsActive,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}, nil
}

func (r *paymentRepository) toDomain(m TransactionPayment) (*payment.Payment, error) {
	s, err := r.registry.PaymentStateByID(m.StateID)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		ID:                      m.ID,
		TransactionCode:         m.TransactionCode,
		Amount:                  m.Amount,
		Currency:                money.Code(m.Currency),
		UnlockCode:              m.UnlockCode,
		SecurityCode:            m.SecurityCode,
		ProviderLinkID:          m.ProviderLinkID,
		ProviderPaymentIntentID: m.ProviderPaymentIntentID,
		ProviderTransferID:      m.ProviderTransferID,
		ProviderRefundID:        m.ProviderRefundID,
		PaymentURL:              m.PaymentURL,
		State:                   state.PaymentCode(s.Code),
		PaymentStatus:           m.PaymentStatus,
		IsProviderPayment:       m.IsProviderPayment,
		IsActive:                m.IsActive,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}, nil
}
