package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/payment"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestTransactionRepository_CreateHeaderAssignsCode(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, state.MustDefaultRegistry())

	mock.ExpectQuery(`INSERT INTO "transaction_sequences" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(`INSERT INTO "transaction_headers" (.+) VALUES (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "transaction_line_items" (.+) VALUES (.+),(.+)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	h := &transaction.Header{
		BuyerUsername: "buyer",
		Lines: []transaction.LineItem{
			{SellerUsername: "seller", ProfileProductID: uuid.New(), Units: 1, UnitPrice: decimal.NewFromInt(500)},
			{SellerUsername: "maker", ProfileProductID: uuid.New(), Units: 1, UnitPrice: decimal.NewFromInt(1000)},
		},
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	require.NoError(repo.CreateHeader(context.Background(), h))
	require.Equal(uint64(42), h.Sequence)
	require.Equal("T-000042", h.Code)
	for _, l := range h.Lines {
		require.NotEqual(uuid.Nil, l.ID)
	}
	require.NoError(mock.ExpectationsWereMet())
}

func TestTransactionRepository_GetHeaderLoadsLines(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, state.MustDefaultRegistry())

	mock.ExpectQuery(`SELECT \* FROM "transaction_headers" WHERE code = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "code", "buyer_username", "shopping_cart_code", "is_active"}).
			AddRow(7, "T-000007", "buyer", "CART-1", true))
	mock.ExpectQuery(`SELECT \* FROM "transaction_line_items" WHERE code IN \(\$1\) ORDER BY code,\s?position`).
		WithArgs("T-000007").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "position", "seller_username", "profile_product_id", "description", "units", "unit_price"}).
			AddRow(uuid.NewString(), "T-000007", 0, "seller", uuid.NewString(), "Guitarra", 2, "500.00").
			AddRow(uuid.NewString(), "T-000007", 1, "maker", uuid.NewString(), "Amplificador", 1, "1000.00"))

	h, err := repo.GetHeader(context.Background(), "T-000007")
	require.NoError(err)
	require.Equal("CART-1", h.ShoppingCartCode)
	require.Len(h.Lines, 2)
	require.Equal("maker", h.Lines[1].SellerUsername)
	require.True(decimal.RequireFromString("1000").Equal(h.Lines[1].UnitPrice))
	require.NoError(mock.ExpectationsWereMet())
}

func TestPaymentRepository_AddPayoutDuplicateSeller(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db, state.MustDefaultRegistry())

	mock.ExpectExec(`INSERT INTO "transaction_payouts"`).
		WillReturnError(gorm.ErrDuplicatedKey)

	err := repo.AddPayout(context.Background(), uuid.New(), payment.Payout{SellerUsername: "seller", TransferID: "tr_1"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestTransactionRepository_CreateHeaderDuplicateCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, state.MustDefaultRegistry())

	mock.ExpectQuery(`INSERT INTO "transaction_sequences"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO "transaction_headers"`).
		WillReturnError(gorm.ErrDuplicatedKey)

	err := repo.CreateHeader(context.Background(), &transaction.Header{})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestTransactionRepository_ListEntriesMapsStates(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, state.MustDefaultRegistry())

	now := time.Now()
	cols := []string{"id", "code", "username", "is_buy_transaction", "version", "revision", "units", "amount", "state_id", "is_active", "created_at"}
	mock.ExpectQuery(`SELECT \* FROM "transaction_entries" WHERE code = \$1 ORDER BY created_at DESC,\s?revision DESC`).
		WithArgs("T-000001").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), "T-000001", "buyer", true, 1, 4, 2, "200.00", 2, true, now).
			AddRow(uuid.NewString(), "T-000001", "seller", false, 1, 3, 2, "200.00", 2, true, now))

	entries, err := repo.ListEntries(context.Background(), "T-000001")
	require.NoError(err)
	require.Len(entries, 2)
	require.Equal(state.TransactionAccepted, entries[0].State)
	require.True(entries[0].IsBuyTransaction)
	require.True(decimal.RequireFromString("200").Equal(entries[0].Amount))
}

func TestTransactionRepository_AppendEntriesRejectsUnknownState(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewTransactionRepository(db, state.MustDefaultRegistry())

	err := repo.AppendEntries(context.Background(), transaction.Entry{ID: uuid.New(), State: "TS-99"})
	assert.ErrorIs(t, err, state.ErrUnknownState)
}

func TestTransactionRepository_GetHeaderNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, state.MustDefaultRegistry())

	mock.ExpectQuery(`SELECT \* FROM "transaction_headers"`).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "code"}))

	_, err := repo.GetHeader(context.Background(), "T-000404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecisionRepository_AppendDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDecisionRepository(db)

	mock.ExpectExec(`INSERT INTO "transaction_decisions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "transaction_decisions"`).
		WillReturnError(gorm.ErrDuplicatedKey)

	d := transaction.NewDecision("T-000001", 1, "buyer", true, time.Now())
	require.NoError(t, repo.Append(context.Background(), d))
	err := repo.Append(context.Background(), d)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestProviderEventRepository_MarkProcessed(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	repo := NewProviderEventRepository(db)

	mock.ExpectExec(`INSERT INTO "processed_provider_events" (.+) ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "processed_provider_events" (.+) ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.MarkProcessed(context.Background(), "evt_1", "checkout.session.completed", "T-000001")
	require.NoError(err)
	require.True(first)

	again, err := repo.MarkProcessed(context.Background(), "evt_1", "checkout.session.completed", "T-000001")
	require.NoError(err)
	require.False(again)
}

func TestCatalogRepository_DecrementUnits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "profile_products" SET "units"=units - \$1 WHERE (.+)id = \$2 AND units >= \$3`).
		WithArgs(int64(3), id, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "profile_products"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "profile_products"`).
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, repo.DecrementUnits(context.Background(), id, 3))
	assert.ErrorIs(t, repo.DecrementUnits(context.Background(), id, 3), repository.ErrInsufficientStock)
	assert.EqualError(t, repo.DecrementUnits(context.Background(), id, 3), "connection reset")
}

func TestStateRepository_LoadRegistry(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)

	txRows := sqlmock.NewRows([]string{"id", "code", "description", "is_active"})
	for _, s := range state.DefaultTransactionStates() {
		txRows.AddRow(s.ID+10, s.Code, s.Description, true)
	}
	payRows := sqlmock.NewRows([]string{"id", "code", "description", "is_active"})
	for _, s := range state.DefaultPaymentStates() {
		payRows.AddRow(s.ID+20, s.Code, s.Description, true)
	}
	mock.ExpectQuery(`SELECT \* FROM "transaction_states"`).WillReturnRows(txRows)
	mock.ExpectQuery(`SELECT \* FROM "transaction_payment_states"`).WillReturnRows(payRows)

	reg, err := LoadRegistry(context.Background(), NewStateRepository(db))
	require.NoError(err)
	id, err := reg.TransactionID(state.TransactionCompleted)
	require.NoError(err)
	require.Equal(uint(13), id)
}
