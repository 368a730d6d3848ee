package repository

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/state"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates the escrow schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// SeedStates inserts the canonical state registries. Existing rows are left
// untouched so operators can deactivate states.
func SeedStates(ctx context.Context, db *gorm.DB) error {
	txRows := make([]TransactionState, 0, 3)
	for _, s := range state.DefaultTransactionStates() {
		txRows = append(txRows, TransactionState{ID: s.ID, Code: s.Code, Description: s.Description, IsActive: s.IsActive})
	}
	payRows := make([]PaymentState, 0, 4)
	for _, s := range state.DefaultPaymentStates() {
		payRows = append(payRows, PaymentState{ID: s.ID, Code: s.Code, Description: s.Description, IsActive: s.IsActive})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&txRows).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&payRows).Error
	})
}
