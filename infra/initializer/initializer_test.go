package initializer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	infra_eventbus "github.com/amirasaad/escrow/infra/eventbus"
	infra_lock "github.com/amirasaad/escrow/infra/lock"
	infra_notify "github.com/amirasaad/escrow/infra/notify"
	"github.com/amirasaad/escrow/infra/provider/mockpayment"
	"github.com/amirasaad/escrow/infra/provider/stripepayment"
	"github.com/amirasaad/escrow/internal/fixtures/catalog"
	"github.com/amirasaad/escrow/pkg/config"
	transactionsvc "github.com/amirasaad/escrow/pkg/service/transaction"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig() *config.App {
	return &config.App{
		Env:       "test",
		Log:       &config.Log{Format: "text"},
		DB:        &config.DB{Driver: "memory"},
		Redis:     &config.Redis{},
		Lock:      &config.Lock{Backend: "memory"},
		RateLimit: &config.RateLimit{MaxRequests: 10, Window: time.Minute},
		PaymentProviders: &config.PaymentProviders{
			Driver: "mock",
			Stripe: &config.Stripe{SigningSecret: "whsec_test"},
		},
		Escrow:   &config.Escrow{Currency: "hnl", ProviderTimeout: time.Second, SecretLength: 32},
		EventBus: &config.EventBus{Driver: "memory"},
		Notify:   &config.Notify{Driver: "memory"},
		Metrics:  &config.Metrics{Enabled: false},
	}
}

func TestInitializeDependencies_MemoryStack(t *testing.T) {
	deps, err := InitializeDependencies(memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	assert.IsType(t, &infra_lock.MemoryLocker{}, deps.Locker)
	assert.IsType(t, &infra_eventbus.MemoryEventBus{}, deps.EventBus)
	assert.IsType(t, &mockpayment.MockPaymentProvider{}, deps.Provider)
	assert.IsType(t, &infra_notify.MemoryNotifier{}, deps.Notifier)
	assert.NotNil(t, deps.Gatherer)

	res, err := deps.Transactions.Create(context.Background(), transactionRequest())
	require.NoError(t, err)
	assert.Equal(t, "T-000001", res.TransactionCode)
}

func TestInitLocker(t *testing.T) {
	cfg := memoryConfig()
	deps := &Deps{}

	cfg.Lock.Backend = "redis"
	_, err := initLocker(deps, cfg, discard())
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Lock.TTL = time.Second
	cfg.Lock.Wait = time.Second
	l, err := initLocker(deps, cfg, discard())
	require.NoError(t, err)
	assert.IsType(t, &infra_lock.RedisLocker{}, l)
	require.Len(t, deps.closers, 1)

	unlock, err := l.Lock(context.Background(), "tx:T-000001")
	require.NoError(t, err)
	unlock()
	require.NoError(t, deps.Close())

	cfg.Lock.Backend = "zookeeper"
	_, err = initLocker(deps, cfg, discard())
	assert.Error(t, err)
}

func TestInitEventBus(t *testing.T) {
	cfg := memoryConfig()
	deps := &Deps{}

	cfg.EventBus.Driver = "kafka"
	cfg.EventBus.KafkaBrokers = ""
	_, err := initEventBus(deps, cfg, discard())
	assert.Error(t, err)

	cfg.EventBus.Driver = "nope"
	_, err = initEventBus(deps, cfg, discard())
	assert.Error(t, err)
}

func TestInitNotifier(t *testing.T) {
	cfg := memoryConfig()
	deps := &Deps{}

	cfg.Notify.Driver = "kafka"
	cfg.EventBus.KafkaBrokers = ""
	_, err := initNotifier(deps, cfg, discard())
	assert.Error(t, err)

	cfg.EventBus.KafkaBrokers = "localhost:9092"
	cfg.Notify.KafkaTopic = "escrow.buyer-notifications"
	n, err := initNotifier(deps, cfg, discard())
	require.NoError(t, err)
	assert.IsType(t, &infra_notify.KafkaNotifier{}, n)
	require.Len(t, deps.closers, 1)
	require.NoError(t, deps.Close())

	cfg.Notify.Driver = "sms"
	_, err = initNotifier(deps, cfg, discard())
	assert.Error(t, err)
}

func TestInitPaymentProvider(t *testing.T) {
	cfg := memoryConfig()

	cfg.PaymentProviders.Driver = "stripe"
	_, err := initPaymentProvider(cfg, discard())
	assert.Error(t, err, "stripe needs an API key")

	cfg.PaymentProviders.Stripe.ApiKey = "sk_test_123"
	p, err := initPaymentProvider(cfg, discard())
	require.NoError(t, err)
	assert.IsType(t, &stripepayment.StripePaymentProvider{}, p)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[escrow]"})
	logger.Info("hello", "transaction_code", "T-000001")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "T-000001", line["transaction_code"])
}

func transactionRequest() transactionsvc.CreateRequest {
	return transactionsvc.CreateRequest{
		SellerUsername:   "seller",
		BuyerUsername:    "buyer",
		ProfileProductID: catalog.GuitarID,
		Units:            1,
	}
}
