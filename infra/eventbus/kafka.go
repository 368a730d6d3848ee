package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/escrow/pkg/domain/events"
	"github.com/amirasaad/escrow/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// KafkaEventBus publishes every escrow event to one topic keyed by
// transaction code, so events of one transaction stay ordered within a
// partition.
type KafkaEventBus struct {
	brokers []string
	writer  *kafka.Writer
	config  KafkaEventBusConfig
	logger  *slog.Logger

	handlersMtx sync.RWMutex
	handlers    map[events.Type][]eventbus.HandlerFunc

	consumeOnce sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	reader      *kafka.Reader
}

// NewWithKafka creates a new Kafka-backed event bus.
// Brokers is a comma-separated list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(config KafkaEventBusConfig, logger *slog.Logger) (*KafkaEventBus, error) {
	brokers := parseBrokers(config.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka event bus: brokers are required")
	}
	if strings.TrimSpace(config.Topic) == "" {
		config.Topic = "escrow.events"
	}
	if config.GroupID == "" {
		config.GroupID = "escrow"
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  config.Topic,
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.Hash{},
		},
		config:   config,
		logger:   logger.With("bus", "kafka"),
		handlers: make(map[events.Type][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
	logger.Info("Kafka event bus initialized", "brokers", brokers, "topic", config.Topic, "group_id", config.GroupID)
	return bus, nil
}

// Register registers a handler and starts the consumer on first use.
func (b *KafkaEventBus) Register(eventType events.Type, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.consumeOnce.Do(func() {
		b.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     b.brokers,
			GroupID:     b.config.GroupID,
			Topic:       b.config.Topic,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     time.Second,
		})
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.consumeLoop(b.ctx)
		}()
	})
}

// Emit publishes an event to Kafka.
func (b *KafkaEventBus) Emit(ctx context.Context, e events.Event) error {
	msg, err := encodeMessage(e)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Close stops the consumer and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	if b.reader != nil {
		_ = b.reader.Close()
	}
	b.wg.Wait()
	return b.writer.Close()
}

func (b *KafkaEventBus) consumeLoop(ctx context.Context) {
	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "topic", b.config.Topic)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		b.dispatch(ctx, msg)
		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

func (b *KafkaEventBus) dispatch(ctx context.Context, msg kafka.Message) {
	e, err := decodeMessage(msg)
	if err != nil {
		b.logger.Error("dropping undecodable message", "error", err, "offset", msg.Offset)
		return
	}
	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[e.Kind]...)
	b.handlersMtx.RUnlock()
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			b.logger.Error("failed to process event", "type", e.Kind, "code", e.TransactionCode, "error", err)
		}
	}
}

func encodeMessage(e events.Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka event bus: marshal failed: %w", err)
	}
	value, err := json.Marshal(envelope{Type: e.Type(), Payload: payload})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka event bus: envelope marshal failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.TransactionCode),
		Value: value,
		Time:  e.OccurredAt,
	}, nil
}

func decodeMessage(msg kafka.Message) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return events.Event{}, err
	}
	if env.Type == "" {
		return events.Event{}, errors.New("missing event type in envelope")
	}
	var e events.Event
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return events.Event{}, err
	}
	return e, nil
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
