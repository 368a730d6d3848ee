// Package settlement computes the platform commission and interprets
// provider transfer and refund statuses.
package settlement

import (
	"github.com/amirasaad/escrow/pkg/money"
	"github.com/shopspring/decimal"
)

// CommissionRate is the platform's share. Release to seller and refund to
// buyer both deduct it.
var CommissionRate = decimal.RequireFromString("0.06")

// Breakdown splits an escrowed amount into commission and net payout.
type Breakdown struct {
	Original   decimal.Decimal `json:"originalAmount"`
	Commission decimal.Decimal `json:"platformCommission"`
	Net        decimal.Decimal `json:"netAmount"`
	Rate       decimal.Decimal `json:"commissionPercentage"`
}

// Calculate returns commission = round2(amount * rate) and
// net = round2(amount - commission).
func Calculate(amount decimal.Decimal) Breakdown {
	commission := money.Round2(amount.Mul(CommissionRate))
	return Breakdown{
		Original:   amount,
		Commission: commission,
		Net:        money.Round2(amount.Sub(commission)),
		Rate:       CommissionRate,
	}
}

// RatePercent renders the commission rate as a whole percentage, e.g. "6".
func RatePercent() string {
	return CommissionRate.Mul(decimal.NewFromInt(100)).String()
}
