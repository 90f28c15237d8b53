// Package events publishes payment outcome events to Kafka as cloud-event
// shaped JSON messages. Publishing is best effort: the webhook must ack the
// gateway whether or not the broker is reachable, so callers log and drop
// errors.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types carried on the payment topic.
const (
	TypePaymentSucceeded     = "payment.succeeded"
	TypePaymentFailed        = "payment.failed"
	TypeRegistrationRefunded = "registration.refunded"
)

// CloudEvent is the envelope for every published message.
type CloudEvent struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// PaymentSucceededEvent is emitted after a notification marks a registration
// paid.
type PaymentSucceededEvent struct {
	OrderNo       string    `json:"order_no"`
	Store         string    `json:"store"`
	Amount        int64     `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
	TradeNo       string    `json:"trade_no,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
}

// PaymentFailedEvent is emitted when a non-success notification names a
// known order.
type PaymentFailedEvent struct {
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RegistrationRefundedEvent is emitted when an admin refunds a registration.
type RegistrationRefundedEvent struct {
	RegistrationID string `json:"registration_id"`
	OrderNo        string `json:"order_no"`
	Amount         int64  `json:"amount"`
}

// Producer writes payment events to a single Kafka topic.
type Producer struct {
	writer *kafkago.Writer
	source string
	logger *zap.Logger
}

// NewProducer creates a Kafka producer for the given brokers and topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Producer{writer: writer, source: "service-registration", logger: logger}
}

// Publish wraps data in a cloud-event envelope keyed by the order number.
func (p *Producer) Publish(ctx context.Context, eventType, orderNo string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	event := CloudEvent{
		ID:     uuid.New().String(),
		Source: p.source,
		Type:   eventType,
		Time:   time.Now().UTC(),
		Data:   raw,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cloud event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(orderNo),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("type", eventType),
		zap.String("order_no", orderNo),
	)
	return nil
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
