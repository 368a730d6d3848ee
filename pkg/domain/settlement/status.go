package settlement

import (
	"fmt"

	"github.com/amirasaad/escrow/pkg/domain"
)

// Provider-reported transfer statuses.
const (
	TransferPaid     = "paid"
	TransferPending  = "pending"
	TransferFailed   = "failed"
	TransferCanceled = "canceled"
)

// Provider-reported refund statuses.
const (
	RefundSucceeded = "succeeded"
	RefundPending   = "pending"
	RefundFailed    = "failed"
	RefundCanceled  = "canceled"
)

// StatusError is a provider-reported outcome that leaves local state untouched.
type StatusError struct {
	Operation string
	Status    string
	Retryable bool
	msg       string
}

func (e *StatusError) Error() string { return e.msg }

// Unwrap classifies the outcome as an expected business conflict.
func (e *StatusError) Unwrap() error { return domain.ErrConflict }

// CheckTransfer accepts paid and pending transfers. Pending transfers are
// not polled again afterwards.
func CheckTransfer(status string) error {
	switch status {
	case TransferPaid, TransferPending:
		return nil
	case TransferFailed, TransferCanceled:
		return &StatusError{
			Operation: "transfer",
			Status:    status,
			msg:       fmt.Sprintf("transfer failed with status: %s", status),
		}
	default:
		return &StatusError{
			Operation: "transfer",
			Status:    status,
			msg:       fmt.Sprintf("unknown transfer status: %s", status),
		}
	}
}

// CheckRefund accepts only succeeded refunds. A pending refund is reported
// as retryable; nothing is scheduled in the background.
func CheckRefund(status string) error {
	switch status {
	case RefundSucceeded:
		return nil
	case RefundPending:
		return &StatusError{
			Operation: "refund",
			Status:    status,
			Retryable: true,
			msg:       "refund is pending processing; retry later",
		}
	case RefundFailed, RefundCanceled:
		return &StatusError{
			Operation: "refund",
			Status:    status,
			msg:       fmt.Sprintf("refund failed with status: %s", status),
		}
	default:
		return &StatusError{
			Operation: "refund",
			Status:    status,
			msg:       fmt.Sprintf("unknown refund status: %s", status),
		}
	}
}
