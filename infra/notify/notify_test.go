package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/escrow/pkg/notify"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notice(code, unlock string) notify.UnlockCode {
	return notify.UnlockCode{
		TransactionCode: code,
		BuyerUsername:   "buyer",
		UnlockCode:      unlock,
		Amount:          decimal.NewFromInt(1000),
		Currency:        "HNL",
	}
}

func TestMemoryNotifier(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryNotifier(nil)

	require.NoError(t, m.SendUnlockCode(ctx, notice("T-000001", "first")))
	require.NoError(t, m.SendUnlockCode(ctx, notice("T-000002", "other")))
	require.NoError(t, m.SendUnlockCode(ctx, notice("T-000001", "again")))

	got, ok := m.LastUnlockCode("buyer", "T-000001")
	require.True(t, ok)
	assert.Equal(t, "again", got)
	assert.Len(t, m.Inbox("buyer"), 3)
	assert.Empty(t, m.Inbox("seller"))

	_, ok = m.LastUnlockCode("seller", "T-000001")
	assert.False(t, ok)
}

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaNotifier_KeysByBuyer(t *testing.T) {
	w := &recordingWriter{}
	k := &KafkaNotifier{writer: w, logger: discardLogger()}

	require.NoError(t, k.SendUnlockCode(context.Background(), notice("T-000001", "secret")))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "buyer", string(w.msgs[0].Key))
	assert.Equal(t, kindUnlockCode, string(w.msgs[0].Headers[0].Value))

	var body notify.UnlockCode
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "secret", body.UnlockCode)
	assert.Equal(t, "T-000001", body.TransactionCode)

	w.err = errors.New("broker down")
	assert.ErrorIs(t, k.SendUnlockCode(context.Background(), notice("T-000001", "secret")), w.err)
}

func TestNewKafkaNotifier_Validates(t *testing.T) {
	_, err := NewKafkaNotifier(KafkaNotifierConfig{Brokers: " , ", Topic: "t"}, nil)
	assert.Error(t, err)
	_, err = NewKafkaNotifier(KafkaNotifierConfig{Brokers: "localhost:9092"}, nil)
	assert.Error(t, err)
	k, err := NewKafkaNotifier(KafkaNotifierConfig{Brokers: "localhost:9092", Topic: "escrow.buyer-notifications"}, nil)
	require.NoError(t, err)
	assert.NoError(t, k.Close())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
