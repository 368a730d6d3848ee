package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Decision is one party's stance at a negotiation version. Decisions are
// append-only and unique per (Code, Version, Username).
type Decision struct {
	ID         uuid.UUID
	Code       string
	Version    int
	Username   string
	IsAccepted bool
	CreatedAt  time.Time
}

// NewDecision returns a decision stamped with now.
func NewDecision(code string, version int, username string, accepted bool, now time.Time) Decision {
	return Decision{
		ID:         uuid.New(),
		Code:       code,
		Version:    version,
		Username:   username,
		IsAccepted: accepted,
		CreatedAt:  now,
	}
}
