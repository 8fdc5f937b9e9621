package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/pkg/kafka"
)

// EventPublisher publishes ticket events
type EventPublisher interface {
	PublishPurchaseRecorded(ctx context.Context, purchase *domain.Purchase) error
	PublishWatcherTriggered(ctx context.Context, watcher *domain.Watcher) error
	Close() error
}

// MessageProducer is the part of the Kafka producer the publisher uses
type MessageProducer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
	Close()
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    MessageProducer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "decaying-tickets-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newKafkaEventPublisher(producer, cfg.Topic, cfg.ServiceName), nil
}

func newKafkaEventPublisher(producer MessageProducer, topic, serviceName string) *KafkaEventPublisher {
	if topic == "" {
		topic = "ticket-events"
	}
	if serviceName == "" {
		serviceName = "decaying-tickets"
	}
	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}
}

// PublishPurchaseRecorded publishes a purchase recorded event
func (p *KafkaEventPublisher) PublishPurchaseRecorded(ctx context.Context, purchase *domain.Purchase) error {
	eventID := uuid.New().String()
	return p.publish(ctx, domain.NewPurchaseRecordedEvent(eventID, purchase))
}

// PublishWatcherTriggered publishes a watcher triggered event
func (p *KafkaEventPublisher) PublishWatcherTriggered(ctx context.Context, watcher *domain.Watcher) error {
	eventID := uuid.New().String()
	return p.publish(ctx, domain.NewWatcherTriggeredEvent(eventID, watcher))
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) publish(ctx context.Context, event *domain.TicketEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: map[string]string{
			"event_type":   string(event.EventType),
			"event_id":     event.EventID,
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: event.OccurredAt,
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.EventType, err)
	}
	return nil
}

// NoOpEventPublisher drops every event
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishPurchaseRecorded(ctx context.Context, purchase *domain.Purchase) error {
	return nil
}

func (p *NoOpEventPublisher) PublishWatcherTriggered(ctx context.Context, watcher *domain.Watcher) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
