package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"minishop/internal/domain"
)

const schemaVersion = 1

// orderEvent is the published payload. The raw buyer id stays out of the bus;
// consumers get the display id only.
type orderEvent struct {
	EventID        string             `json:"eventId"`
	EventType      EventType          `json:"eventType"`
	SchemaVersion  int                `json:"schemaVersion"`
	OccurredAt     time.Time          `json:"occurredAt"`
	CorrelationID  string             `json:"correlationId"`
	OrderID        string             `json:"orderId"`
	ShopID         string             `json:"shopId"`
	BuyerDisplayID string             `json:"buyerDisplayId"`
	Status         domain.OrderStatus `json:"status"`
	Items          []domain.OrderItem `json:"items"`
	Total          int64              `json:"total"`
}

// KafkaNotifier publishes order events, one topic per event type, keyed by order id
// so every event of one order lands on the same partition.
type KafkaNotifier struct {
	producer    sarama.SyncProducer
	topicPrefix string
	logger      *zap.Logger
}

func NewKafkaNotifier(brokers []string, topicPrefix string, logger *zap.Logger) (*KafkaNotifier, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaNotifierWithProducer(producer, topicPrefix, logger), nil
}

func NewKafkaNotifierWithProducer(p sarama.SyncProducer, topicPrefix string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: p, topicPrefix: topicPrefix, logger: logger}
}

func (n *KafkaNotifier) Topic(t EventType) string {
	if n.topicPrefix == "" {
		return string(t)
	}
	return n.topicPrefix + "." + string(t)
}

func (n *KafkaNotifier) Notify(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(orderEvent{
		EventID:        e.ID,
		EventType:      e.Type,
		SchemaVersion:  schemaVersion,
		OccurredAt:     e.OccurredAt.UTC(),
		CorrelationID:  e.Order.ID,
		OrderID:        e.Order.ID,
		ShopID:         e.Order.ShopID,
		BuyerDisplayID: e.Order.BuyerDisplayID,
		Status:         e.Order.Status,
		Items:          e.Order.Items,
		Total:          e.Order.Total,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := n.Topic(e.Type)
	partition, offset, err := n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.Order.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	n.logger.Debug("event published",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
