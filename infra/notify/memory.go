// Package notify delivers buyer notices. The Kafka notifier writes them to a
// dedicated topic keyed by buyer for a downstream mailer; the memory
// notifier keeps an in-process inbox for local runs and tests.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/amirasaad/escrow/pkg/notify"
)

// MemoryNotifier keeps delivered notices per buyer.
type MemoryNotifier struct {
	mu     sync.Mutex
	inbox  map[string][]notify.UnlockCode
	logger *slog.Logger
}

// NewMemoryNotifier creates an empty inbox.
func NewMemoryNotifier(logger *slog.Logger) *MemoryNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryNotifier{
		inbox:  make(map[string][]notify.UnlockCode),
		logger: logger.With("notifier", "memory"),
	}
}

// SendUnlockCode appends n to the buyer's inbox. The code itself is never
// logged.
func (m *MemoryNotifier) SendUnlockCode(_ context.Context, n notify.UnlockCode) error {
	m.mu.Lock()
	m.inbox[n.BuyerUsername] = append(m.inbox[n.BuyerUsername], n)
	m.mu.Unlock()
	m.logger.Debug("Unlock code queued", "transaction_code", n.TransactionCode, "buyer", n.BuyerUsername)
	return nil
}

// Inbox returns the notices delivered to buyer, oldest first.
func (m *MemoryNotifier) Inbox(buyer string) []notify.UnlockCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.inbox[buyer])
}

// LastUnlockCode returns the most recent unlock code sent to buyer for code.
func (m *MemoryNotifier) LastUnlockCode(buyer, code string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	notices := m.inbox[buyer]
	for i := len(notices) - 1; i >= 0; i-- {
		if notices[i].TransactionCode == code {
			return notices[i].UnlockCode, true
		}
	}
	return "", false
}

var _ notify.Notifier = (*MemoryNotifier)(nil)
