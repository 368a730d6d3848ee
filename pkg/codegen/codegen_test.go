package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionCode(t *testing.T) {
	tests := []struct {
		name    string
		seq     uint64
		want    string
		wantErr error
	}{
		{name: "first code", seq: 1, want: "T-000001"},
		{name: "padded", seq: 4521, want: "T-004521"},
		{name: "widest", seq: 999999, want: "T-999999"},
		{name: "zero", seq: 0, wantErr: ErrInvalidSequence},
		{name: "overflow", seq: 1000000, wantErr: ErrSequenceOverflow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TransactionCode(tc.seq)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.True(t, IsTransactionCode(got))
		})
	}
}

func TestIsTransactionCode(t *testing.T) {
	assert.True(t, IsTransactionCode("T-000123"))
	assert.False(t, IsTransactionCode("T-123"))
	assert.False(t, IsTransactionCode("X-000123"))
	assert.False(t, IsTransactionCode("T-0001234"))
}

func TestSecret(t *testing.T) {
	secret, err := Secret(DefaultSecretLength)
	require.NoError(t, err)
	assert.Len(t, secret, DefaultSecretLength)
	for _, r := range secret {
		assert.True(t, strings.ContainsRune(SecretAlphabet, r), "unexpected rune %q", r)
	}

	_, err = Secret(MinSecretLength - 1)
	assert.ErrorIs(t, err, ErrSecretLengthTooShort)
}

func TestSecret_NoRepeats(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for range 500 {
		s, err := Secret(DefaultSecretLength)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "duplicate secret generated")
		seen[s] = struct{}{}
	}
}

func TestNewSecrets(t *testing.T) {
	s, err := NewSecrets(12)
	require.NoError(t, err)
	assert.Len(t, s.UnlockCode, 12)
	assert.Len(t, s.SecurityCode, 12)
	assert.NotEqual(t, s.UnlockCode, s.SecurityCode)
}
