// Package initializer builds the escrow service graph from configuration.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/escrow/infra"
	infra_eventbus "github.com/amirasaad/escrow/infra/eventbus"
	infra_lock "github.com/amirasaad/escrow/infra/lock"
	infra_notify "github.com/amirasaad/escrow/infra/notify"
	"github.com/amirasaad/escrow/infra/provider/mockpayment"
	"github.com/amirasaad/escrow/infra/provider/stripepayment"
	infra_repository "github.com/amirasaad/escrow/infra/repository"
	"github.com/amirasaad/escrow/infra/repository/memory"
	"github.com/amirasaad/escrow/internal/fixtures/catalog"
	"github.com/amirasaad/escrow/pkg/config"
	"github.com/amirasaad/escrow/pkg/domain/events"
	"github.com/amirasaad/escrow/pkg/domain/state"
	"github.com/amirasaad/escrow/pkg/eventbus"
	"github.com/amirasaad/escrow/pkg/lock"
	"github.com/amirasaad/escrow/pkg/metrics"
	"github.com/amirasaad/escrow/pkg/notify"
	"github.com/amirasaad/escrow/pkg/provider/payment"
	"github.com/amirasaad/escrow/pkg/repository"
	"github.com/amirasaad/escrow/pkg/service"
	paymentsvc "github.com/amirasaad/escrow/pkg/service/payment"
	settlementsvc "github.com/amirasaad/escrow/pkg/service/settlement"
	transactionsvc "github.com/amirasaad/escrow/pkg/service/transaction"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Deps is the wired application.
type Deps struct {
	Config   *config.App
	Logger   *slog.Logger
	Uow      repository.UnitOfWork
	States   *state.Registry
	Locker   lock.Locker
	EventBus eventbus.Bus
	Notifier notify.Notifier
	Provider payment.Provider
	Metrics  *metrics.Metrics
	// Gatherer serves /metrics: escrow collectors plus the default registry
	// the gorm plugin writes to.
	Gatherer prometheus.Gatherer

	Transactions *transactionsvc.Service
	Payments     *paymentsvc.Service
	Settlement   *settlementsvc.Service

	closers []func() error
}

// Close releases connections opened by InitializeDependencies.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (deps *Deps, err error) {
	logger := setupLogger(cfg.Log)
	deps = &Deps{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.Metrics.Enabled {
		deps.Metrics, err = metrics.New(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	deps.Gatherer = prometheus.Gatherers{reg, prometheus.DefaultGatherer}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	deps.Uow, deps.States, err = initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.Locker, err = initLocker(deps, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.EventBus, err = initEventBus(deps, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.Notifier, err = initNotifier(deps, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.Provider, err = initPaymentProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	svcDeps := service.Deps{
		Uow:      deps.Uow,
		Locker:   deps.Locker,
		Provider: deps.Provider,
		EventBus: deps.EventBus,
		Notifier: deps.Notifier,
		States:   deps.States,
		Metrics:  deps.Metrics,
		Escrow:   cfg.Escrow,
		Logger:   logger,
	}
	deps.Payments = paymentsvc.New(svcDeps)
	deps.Settlement = settlementsvc.New(svcDeps)
	deps.Transactions = transactionsvc.New(svcDeps, deps.Payments, deps.Settlement)
	registerEventLogging(deps.EventBus, logger)
	return deps, nil
}

// initStorage opens the database, migrates it and loads the state catalog.
// The memory driver serves the embedded demo catalog instead.
func initStorage(
	ctx context.Context,
	cfg *config.App,
	logger *slog.Logger,
) (repository.UnitOfWork, *state.Registry, error) {
	if cfg.DB.Driver == "memory" {
		seed, err := catalog.LoadCatalogCSV("")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load demo catalog: %w", err)
		}
		store := memory.NewStore()
		seed.Apply(store)
		logger.Warn("Using in-memory storage; data is lost on restart",
			"profiles", len(seed.Profiles),
			"products", len(seed.Products))
		return memory.NewUoW(store), state.MustDefaultRegistry(), nil
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env, "escrow")
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := infra_repository.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	if err := infra_repository.SeedStates(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("failed to seed states: %w", err)
	}
	states, err := infra_repository.LoadRegistry(ctx, infra_repository.NewStateRepository(db))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load states: %w", err)
	}
	return infra_repository.NewUoW(db, states), states, nil
}

func initLocker(deps *Deps, cfg *config.App, logger *slog.Logger) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "", "memory":
		return infra_lock.NewMemoryLocker(), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, errors.New("REDIS_URL is required for LOCK_BACKEND=redis")
		}
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts.PoolSize = cfg.Redis.PoolSize
		opts.DialTimeout = cfg.Redis.DialTimeout
		opts.ReadTimeout = cfg.Redis.ReadTimeout
		opts.WriteTimeout = cfg.Redis.WriteTimeout
		client := redis.NewClient(opts)
		deps.closers = append(deps.closers, client.Close)
		logger.Info("Using Redis transaction lock", "ttl", cfg.Lock.TTL, "wait", cfg.Lock.Wait)
		return infra_lock.NewRedisLocker(client, cfg.Redis.KeyPrefix+"lock:", cfg.Lock.TTL, cfg.Lock.Wait, logger), nil
	}
	return nil, fmt.Errorf("unsupported lock backend: %s", cfg.Lock.Backend)
}

func initEventBus(deps *Deps, cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	switch cfg.EventBus.Driver {
	case "", "memory":
		return infra_eventbus.NewWithMemory(logger), nil
	case "kafka":
		if cfg.EventBus.KafkaBrokers == "" {
			return nil, errors.New("EVENT_BUS_KAFKA_BROKERS is required for the kafka event bus")
		}
		bus, err := infra_eventbus.NewWithKafka(infra_eventbus.KafkaEventBusConfig{
			Brokers: cfg.EventBus.KafkaBrokers,
			Topic:   cfg.EventBus.KafkaTopic,
			GroupID: cfg.EventBus.KafkaGroupID,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		deps.closers = append(deps.closers, bus.Close)
		return bus, nil
	}
	return nil, fmt.Errorf("unsupported event bus driver: %s", cfg.EventBus.Driver)
}

func initNotifier(deps *Deps, cfg *config.App, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.Notify.Driver {
	case "", "memory":
		logger.Warn("Unlock codes are kept in an in-process inbox; configure NOTIFY_DRIVER=kafka to reach buyers")
		return infra_notify.NewMemoryNotifier(logger), nil
	case "kafka":
		n, err := infra_notify.NewKafkaNotifier(infra_notify.KafkaNotifierConfig{
			Brokers: cfg.EventBus.KafkaBrokers,
			Topic:   cfg.Notify.KafkaTopic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka notifier: %w", err)
		}
		deps.closers = append(deps.closers, n.Close)
		return n, nil
	}
	return nil, fmt.Errorf("unsupported notify driver: %s", cfg.Notify.Driver)
}

func initPaymentProvider(cfg *config.App, logger *slog.Logger) (payment.Provider, error) {
	stripeCfg := cfg.PaymentProviders.Stripe
	if stripeCfg == nil {
		stripeCfg = &config.Stripe{}
	}
	switch cfg.PaymentProviders.Driver {
	case "", "stripe":
		if stripeCfg.ApiKey == "" {
			return nil, errors.New("PAYMENT_PROVIDER_STRIPE_API_KEY is required for the stripe provider")
		}
		return stripepayment.New(stripeCfg, logger), nil
	case "mock":
		logger.Warn("Using the mock payment provider; no money moves")
		return mockpayment.NewMockPaymentProvider(stripeCfg.SigningSecret), nil
	}
	return nil, fmt.Errorf("unsupported payment provider: %s", cfg.PaymentProviders.Driver)
}

// registerEventLogging logs every committed escrow event.
func registerEventLogging(bus eventbus.Bus, logger *slog.Logger) {
	logger = logger.With("component", "events")
	for _, t := range []events.Type{
		events.TransactionCreated,
		events.TransactionCounterOffered,
		events.TransactionConfirmed,
		events.TransactionCompleted,
		events.PaymentGenerated,
		events.PaymentCaptured,
		events.PaymentCapturedOnRetiredLink,
		events.PaymentFailed,
		events.PaymentReleased,
		events.PaymentRefunded,
	} {
		bus.Register(t, func(ctx context.Context, e events.Event) error {
			logger.InfoContext(ctx, "Escrow event",
				"type", e.Kind,
				"transaction_code", e.TransactionCode,
				"actor", e.Actor,
				"amount", e.Amount)
			return nil
		})
	}
}
