package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/escrow/pkg/notify"
	"github.com/segmentio/kafka-go"
)

// Message type written in the kafka header of every notice.
const kindUnlockCode = "buyer.unlock_code"

// KafkaNotifierConfig holds configuration for the Kafka notifier.
type KafkaNotifierConfig struct {
	Brokers string
	Topic   string
}

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes notices to their own topic, keyed by buyer username.
// The topic is separate from the event bus so its ACL can be limited to the
// mailer that consumes it.
type KafkaNotifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaNotifier creates a notifier writing to config.Topic.
func NewKafkaNotifier(config KafkaNotifierConfig, logger *slog.Logger) (*KafkaNotifier, error) {
	var brokers []string
	for _, b := range strings.Split(config.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka notifier: brokers are required")
	}
	if strings.TrimSpace(config.Topic) == "" {
		return nil, errors.New("kafka notifier: topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  config.Topic,
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
		},
		logger: logger.With("notifier", "kafka", "topic", config.Topic),
	}, nil
}

// SendUnlockCode implements notify.Notifier.
func (k *KafkaNotifier) SendUnlockCode(ctx context.Context, n notify.UnlockCode) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(n.BuyerUsername),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(kindUnlockCode)},
			{Key: "transaction_code", Value: []byte(n.TransactionCode)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka notifier: publish failed: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

var _ notify.Notifier = (*KafkaNotifier)(nil)
