package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "nil", input: nil, expected: nil},
		{name: "duplicate key", input: gorm.ErrDuplicatedKey, expected: domain.ErrAlreadyExists},
		{name: "record not found", input: gorm.ErrRecordNotFound, expected: domain.ErrNotFound},
		{name: "wrapped not found", input: fmt.Errorf("get header: %w", gorm.ErrRecordNotFound), expected: domain.ErrNotFound},
		{name: "joined duplicate", input: errors.Join(errors.New("outer"), gorm.ErrDuplicatedKey), expected: domain.ErrAlreadyExists},
		{name: "foreign key", input: fmt.Errorf("insert line: %w", gorm.ErrForeignKeyViolated), expected: domain.ErrValidation},
		{name: "unmapped error passes through", input: other, expected: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.expected)
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	err := WrapError(func() error { return gorm.ErrRecordNotFound })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, WrapError(func() error { return nil }))

	assert.Panics(t, func() {
		_ = WrapError(func() error { panic("boom") })
	})
}
