package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/pkg/logger"
)

const (
	TopicSubscriptionUpdated  = "subscription.updated"
	TopicSubscriptionCanceled = "subscription.canceled"
)

// SubscriptionEvent представляет событие подписки для Kafka
type SubscriptionEvent struct {
	StripeSubscriptionID string                    `json:"stripe_subscription_id"`
	StripeCustomerID     string                    `json:"stripe_customer_id"`
	UserID               string                    `json:"user_id,omitempty"`
	Plan                 domain.Plan               `json:"plan"`
	SeatsAllowed         int                       `json:"seats_allowed"`
	Billing              domain.BillingCadence     `json:"billing"`
	Status               domain.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd     time.Time                 `json:"current_period_end"`
	Timestamp            time.Time                 `json:"timestamp"`
}

// SubscriptionProducer интерфейс для отправки событий подписок
type SubscriptionProducer interface {
	PublishSubscriptionUpdated(ctx context.Context, rec domain.SubscriptionRecord) error
	PublishSubscriptionCanceled(ctx context.Context, rec domain.SubscriptionRecord) error
	Close() error
}

type kafkaSubscriptionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaSubscriptionProducer создает новый продюсер событий подписок
func NewKafkaSubscriptionProducer(producer sarama.SyncProducer, log *logger.Logger) SubscriptionProducer {
	return &kafkaSubscriptionProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionUpdated публикует событие об изменении подписки
func (p *kafkaSubscriptionProducer) PublishSubscriptionUpdated(ctx context.Context, rec domain.SubscriptionRecord) error {
	return p.publishEvent(ctx, TopicSubscriptionUpdated, rec)
}

// PublishSubscriptionCanceled публикует событие об отмене подписки
func (p *kafkaSubscriptionProducer) PublishSubscriptionCanceled(ctx context.Context, rec domain.SubscriptionRecord) error {
	return p.publishEvent(ctx, TopicSubscriptionCanceled, rec)
}

// publishEvent публикует событие подписки в Kafka
func (p *kafkaSubscriptionProducer) publishEvent(_ context.Context, topic string, rec domain.SubscriptionRecord) error {
	event := SubscriptionEvent{
		StripeSubscriptionID: rec.StripeSubscriptionID,
		StripeCustomerID:     rec.StripeCustomerID,
		UserID:               rec.UserID,
		Plan:                 rec.Plan,
		SeatsAllowed:         rec.SeatsAllowed,
		Billing:              rec.Billing,
		Status:               rec.Status,
		CurrentPeriodEnd:     rec.CurrentPeriodEnd,
		Timestamp:            time.Now(),
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(rec.StripeSubscriptionID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish subscription event: %w", err)
	}

	p.log.Info("Published subscription event to topic %s: partition=%d offset=%d",
		topic, partition, offset)

	return nil
}

// Close закрывает продюсер
func (p *kafkaSubscriptionProducer) Close() error {
	return p.producer.Close()
}
