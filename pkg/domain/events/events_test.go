package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New(PaymentReleased, "T-000010",
		WithActor("seller"),
		WithAmount(decimal.RequireFromString("940")),
		WithAttr("transfer_id", "tr_1"),
	)
	assert.Equal(t, "payment.released", e.Type())
	assert.Equal(t, "T-000010", e.TransactionCode)
	assert.Equal(t, "seller", e.Actor)
	assert.Equal(t, "940.00", e.Amount)
	assert.Equal(t, "tr_1", e.Attributes["transfer_id"])
	assert.False(t, e.OccurredAt.IsZero())
}

func TestEvent_JSON(t *testing.T) {
	e := New(TransactionCreated, "T-000001")
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"transaction.created"`)
	assert.NotContains(t, string(raw), "attributes")
}
