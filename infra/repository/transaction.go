package repository

import (
	"context"
	"fmt"

	"github.com/amirasaad/escrow/pkg/codegen"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db       *gorm.DB
	registry *state.Registry
}

// NewTransactionRepository creates a transaction repository bound to db.
func NewTransactionRepository(db *gorm.DB, registry *state.Registry) repository.TransactionRepository {
	return &transactionRepository{db: db, registry: registry}
}

// CreateHeader implements repository.TransactionRepository.
func (r *transactionRepository) CreateHeader(ctx context.Context, h *transaction.Header) error {
	seq := TransactionSequence{}
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&seq).Error
	}); err != nil {
		return fmt.Errorf("allocate sequence: %w", err)
	}
	code, err := codegen.TransactionCode(seq.ID)
	if err != nil {
		return err
	}
	h.Sequence = seq.ID
	h.Code = code
	row := mapHeaderToModel(h)
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	}); err != nil {
		return err
	}
	if len(h.Lines) == 0 {
		return nil
	}
	lines := make([]TransactionLineItem, 0, len(h.Lines))
	for i := range h.Lines {
		if h.Lines[i].ID == uuid.Nil {
			h.Lines[i].ID = uuid.New()
		}
		lines = append(lines, mapLineToModel(code, i, h.Lines[i]))
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&lines).Error
	})
}

// UpdateHeader implements repository.TransactionRepository.
func (r *transactionRepository) UpdateHeader(ctx context.Context, h *transaction.Header) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&TransactionHeader{}).
			Where("code = ?", h.Code).
			Updates(map[string]any{
				"inventory_released": h.InventoryReleased,
				"is_active":          h.IsActive,
			}).Error
	})
}

// GetHeader implements repository.TransactionRepository.
func (r *transactionRepository) GetHeader(ctx context.Context, code string) (*transaction.Header, error) {
	var row TransactionHeader
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	}); err != nil {
		return nil, err
	}
	lines, err := r.linesByCode(ctx, []string{code})
	if err != nil {
		return nil, err
	}
	h := mapModelToHeader(row, lines[code])
	return &h, nil
}

func (r *transactionRepository) linesByCode(
	ctx context.Context,
	codes []string,
) (map[string][]transaction.LineItem, error) {
	var rows []TransactionLineItem
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("code IN ?", codes).
			Order("code").
			Order("position").
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	out := make(map[string][]transaction.LineItem, len(codes))
	for _, m := range rows {
		out[m.Code] = append(out[m.Code], mapModelToLine(m))
	}
	return out, nil
}

// AppendEntries implements repository.TransactionRepository.
func (r *transactionRepository) AppendEntries(ctx context.Context, entries ...transaction.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]TransactionEntry, 0, len(entries))
	for _, e := range entries {
		row, err := r.mapEntryToModel(e)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&rows).Error
	})
}

// ListEntries implements repository.TransactionRepository.
func (r *transactionRepository) ListEntries(ctx context.Context, code string) ([]transaction.Entry, error) {
	var rows []TransactionEntry
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("code = ?", code).
			Order("created_at DESC").
			Order("revision DESC").
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	return r.mapModelsToEntries(rows)
}

// Get implements repository.TransactionRepository.
func (r *transactionRepository) Get(ctx context.Context, code string) (*transaction.Transaction, error) {
	h, err := r.GetHeader(ctx, code)
	if err != nil {
		return nil, err
	}
	entries, err := r.ListEntries(ctx, code)
	if err != nil {
		return nil, err
	}
	return &transaction.Transaction{Header: *h, Entries: entries}, nil
}

// ListByUser implements repository.TransactionRepository.
func (r *transactionRepository) ListByUser(ctx context.Context, username string) ([]*transaction.Transaction, error) {
	var headers []TransactionHeader
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("buyer_username = ? OR code IN (?)", username,
				r.db.Model(&TransactionLineItem{}).
					Select("code").
					Where("seller_username = ?", username)).
			Order("sequence DESC").
			Find(&headers).Error
	}); err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return []*transaction.Transaction{}, nil
	}

	codes := make([]string, 0, len(headers))
	for _, h := range headers {
		codes = append(codes, h.Code)
	}
	var rows []TransactionEntry
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("code IN ?", codes).
			Order("created_at DESC").
			Order("revision DESC").
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	entries, err := r.mapModelsToEntries(rows)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string][]transaction.Entry, len(headers))
	for _, e := range entries {
		byCode[e.Code] = append(byCode[e.Code], e)
	}
	lines, err := r.linesByCode(ctx, codes)
	if err != nil {
		return nil, err
	}

	out := make([]*transaction.Transaction, 0, len(headers))
	for _, h := range headers {
		out = append(out, &transaction.Transaction{
			Header:  mapModelToHeader(h, lines[h.Code]),
			Entries: byCode[h.Code],
		})
	}
	return out, nil
}

func mapHeaderToModel(h *transaction.Header) TransactionHeader {
	return TransactionHeader{
		Sequence:          h.Sequence,
		Code:              h.Code,
		BuyerUsername:     h.BuyerUsername,
		ShoppingCartCode:  h.ShoppingCartCode,
		InventoryReleased: h.InventoryReleased,
		IsActive:          h.IsActive,
		CreatedAt:         h.CreatedAt,
	}
}

func mapModelToHeader(m TransactionHeader, lines []transaction.LineItem) transaction.Header {
	return transaction.Header{
		Sequence:          m.Sequence,
		Code:              m.Code,
		BuyerUsername:     m.BuyerUsername,
		ShoppingCartCode:  m.ShoppingCartCode,
		Lines:             lines,
		InventoryReleased: m.InventoryReleased,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
	}
}

func mapLineToModel(code string, pos int, l transaction.LineItem) TransactionLineItem {
	return TransactionLineItem{
		ID:               l.ID,
		Code:             code,
		Position:         pos,
		SellerUsername:   l.SellerUsername,
		ProfileProductID: l.ProfileProductID,
		Description:      l.Description,
		Units:            l.Units,
		UnitPrice:        l.UnitPrice,
	}
}

func mapModelToLine(m TransactionLineItem) transaction.LineItem {
	return transaction.LineItem{
		ID:               m.ID,
		SellerUsername:   m.SellerUsername,
		ProfileProductID: m.ProfileProductID,
		Description:      m.Description,
		Units:            m.Units,
		UnitPrice:        m.UnitPrice,
	}
}

func (r *transactionRepository) mapEntryToModel(e transaction.Entry) (TransactionEntry, error) {
	stateID, err := r.registry.TransactionID(e.State)
	if err != nil {
		return TransactionEntry{}, err
	}
	return TransactionEntry{
		ID:               e.ID,
		Code:             e.Code,
		Username:         e.Username,
		IsBuyTransaction: e.IsBuyTransaction,
		Version:          e.Version,
		Revision:         e.Revision,
		Units:            e.Units,
		Amount:           e.Amount,
		StateID:          stateID,
		IsActive:         e.IsActive,
		CreatedAt:        e.CreatedAt,
	}, nil
}

func (r *transactionRepository) mapModelsToEntries(rows []TransactionEntry) ([]transaction.Entry, error) {
	out := make([]transaction.Entry, 0, len(rows))
	for _, m := range rows {
		s, err := r.registry.TransactionStateByID(m.StateID)
		if err != nil {
			return nil, err
		}
		out = append(out, transaction.Entry{
			ID:               m.ID,
			Code:             m.Code,
			Username:         m.Username,
			IsBuyTransaction: m.IsBuyTransaction,
			Version:          m.Version,
			Revision:         m.Revision,
			Units:            m.Units,
			Amount:           m.Amount,
			State:            state.TransactionCode(s.Code),
			IsActive:         m.IsActive,
			CreatedAt:        m.CreatedAt,
		})
	}
	return out, nil
}
