// Package negotiation keeps the versioned decision log of a transaction.
// Each party records at most one decision per negotiation version; the log
// is append-only.
package negotiation

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/amirasaad/escrow/pkg/domain/transaction"
	"github.com/amirasaad/escrow/pkg/repository"
)

// Log records and reads negotiation decisions. Its methods run on the unit
// of work of the calling lifecycle operation, which already holds the
// per-code lock.
type Log struct {
	logger *slog.Logger
}

// New creates a decision log.
func New(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger.With("service", "negotiation")}
}

// HasResponded reports whether username already decided at version.
func (l *Log) HasResponded(
	ctx context.Context,
	uow repository.UnitOfWork,
	code string,
	version int,
	username string,
) (bool, error) {
	repo, err := uow.DecisionRepository()
	if err != nil {
		return false, err
	}
	decisions, err := repo.ListByVersion(ctx, code, version)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(decisions, func(d transaction.Decision) bool {
		return d.Username == username
	}), nil
}

// Submit appends the decision of username at version. A second decision by
// the same user at the same version is rejected with
// transaction.ErrAlreadyResponded and nothing is written.
func (l *Log) Submit(
	ctx context.Context,
	uow repository.UnitOfWork,
	code string,
	version int,
	username string,
	accepted bool,
	now time.Time,
) (transaction.Decision, error) {
	responded, err := l.HasResponded(ctx, uow, code, version, username)
	if err != nil {
		return transaction.Decision{}, err
	}
	if responded {
		return transaction.Decision{}, transaction.ErrAlreadyResponded
	}
	repo, err := uow.DecisionRepository()
	if err != nil {
		return transaction.Decision{}, err
	}
	d := transaction.NewDecision(code, version, username, accepted, now)
	if err := repo.Append(ctx, d); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return transaction.Decision{}, transaction.ErrAlreadyResponded
		}
		return transaction.Decision{}, err
	}
	l.logger.Debug("Decision recorded",
		"transaction_code", code,
		"version", version,
		"username", username,
		"accepted", accepted)
	return d, nil
}

// History returns every decision of code, oldest version first.
func (l *Log) History(ctx context.Context, uow repository.UnitOfWork, code string) ([]transaction.Decision, error) {
	repo, err := uow.DecisionRepository()
	if err != nil {
		return nil, err
	}
	decisions, err := repo.ListByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(decisions, func(a, b transaction.Decision) int {
		if a.Version != b.Version {
			return a.Version - b.Version
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return decisions, nil
}
