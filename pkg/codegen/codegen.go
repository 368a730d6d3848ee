// Package codegen produces transaction codes and escrow secrets.
package codegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

const (
	// TransactionCodePrefix prefixes every transaction code.
	TransactionCodePrefix = "T-"
	// SecretAlphabet is the character set of unlock and security codes.
	SecretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// DefaultSecretLength is the length of generated unlock and security codes.
	DefaultSecretLength = 32
	// MinSecretLength is the shortest secret accepted for escrow release.
	MinSecretLength = 6
)

var (
	ErrInvalidSequence      = errors.New("transaction sequence must be positive")
	ErrSequenceOverflow     = errors.New("transaction sequence exceeds code width")
	ErrSecretLengthTooShort = fmt.Errorf("secret length must be at least %d", MinSecretLength)

	codePattern = regexp.MustCompile(`^T-\d{6}$`)
)

// TransactionCode formats a storage-allocated sequence number as a
// zero padded code, e.g. 42 -> "T-000042".
func TransactionCode(seq uint64) (string, error) {
	if seq == 0 {
		return "", ErrInvalidSequence
	}
	if seq > 999999 {
		return "", ErrSequenceOverflow
	}
	return fmt.Sprintf("%s%06d", TransactionCodePrefix, seq), nil
}

// IsTransactionCode reports whether code has the T-NNNNNN shape.
func IsTransactionCode(code string) bool {
	return codePattern.MatchString(code)
}

// Secret returns length characters drawn uniformly from SecretAlphabet
// using crypto/rand.
func Secret(length int) (string, error) {
	if length < MinSecretLength {
		return "", ErrSecretLengthTooShort
	}
	limit := big.NewInt(int64(len(SecretAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("codegen: read random: %w", err)
		}
		out[i] = SecretAlphabet[n.Int64()]
	}
	return string(out), nil
}

// Secrets holds the pair of codes issued with every escrow payment.
type Secrets struct {
	UnlockCode   string
	SecurityCode string
}

// NewSecrets generates an unlock code and a security code of the given length.
func NewSecrets(length int) (Secrets, error) {
	unlock, err := Secret(length)
	if err != nil {
		return Secrets{}, err
	}
	security, err := Secret(length)
	if err != nil {
		return Secrets{}, err
	}
	return Secrets{UnlockCode: unlock, SecurityCode: security}, nil
}
