package config

import (
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/career-assessment-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled           bool
	Publisher         string // kafka, rabbitmq or inprocess
	KafkaBrokers      string
	RabbitMQURL       string
	NotificationTopic string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using in-process publisher")
		return events.NewInProcessEventPublisher(c.NotificationTopic, logger), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.NotificationTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.NotificationTopic,
			Logger:       logger,
		})
	case "rabbitmq":
		logger.Info("Creating RabbitMQ event publisher", "queue", c.NotificationTopic)

		return events.NewRabbitMQEventPublisher(events.RabbitMQConfig{
			URL:       c.RabbitMQURL,
			QueueName: c.NotificationTopic,
			Logger:    logger,
		})
	case "inprocess", "mock":
		logger.Info("Using in-process event publisher")
		return events.NewInProcessEventPublisher(c.NotificationTopic, logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to in-process", "publisher", c.Publisher)
		return events.NewInProcessEventPublisher(c.NotificationTopic, logger), nil
	}
}
