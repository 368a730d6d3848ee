package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/escrow/infra/eventbus"
	"github.com/amirasaad/escrow/pkg/domain/events"
	"github.com/segmentio/kafka-go"
)

// RunSmokeTest publishes an escrow event through the Kafka event bus and
// waits for the bus's own consumer to dispatch it back.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("EVENT_BUS_KAFKA_BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := strings.TrimSpace(os.Getenv("EVENT_BUS_KAFKA_TOPIC"))
	if topic == "" {
		topic = "escrow.events.smoketest"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureTopic(ctx, strings.Split(brokers, ",")[0], topic); err != nil {
		logger.Warn("topic creation failed, relying on auto-creation", "topic", topic, "error", err)
	}

	bus, err := infra_eventbus.NewWithKafka(infra_eventbus.KafkaEventBusConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: fmt.Sprintf("escrow-smoketest-%d", time.Now().UnixNano()),
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	code := fmt.Sprintf("T-%06d", time.Now().Unix()%1_000_000)
	received := make(chan events.Event, 1)
	bus.Register(events.TransactionCreated, func(_ context.Context, e events.Event) error {
		if e.TransactionCode == code {
			select {
			case received <- e:
			default:
			}
		}
		return nil
	})

	if err := bus.Emit(ctx, events.New(events.TransactionCreated, code, events.WithActor("smoketest"))); err != nil {
		return fmt.Errorf("emit failed: %w", err)
	}
	logger.Info("event published", "topic", topic, "transaction_code", code)

	select {
	case e := <-received:
		logger.Info("event consumed", "type", e.Kind, "transaction_code", e.TransactionCode)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event %s not consumed: %w", code, ctx.Err())
	}
}

// ensureTopic creates topic on the cluster controller.
func ensureTopic(ctx context.Context, broker, topic string) error {
	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	ctrl, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer func() { _ = ctrl.Close() }()

	return ctrl.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
}

func main() {
	if err := RunSmokeTest(); err != nil {
		slog.Error("kafka smoke test failed", "error", err)
		os.Exit(1)
	}
}
