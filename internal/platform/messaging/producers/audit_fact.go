package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/branchday-backoffice/internal/config"
	"github.com/segmentio/kafka-go"
)

type AuditFactProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new audit fact producer and ensures the topic exists
func NewAuditFactProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AuditFactProducer, error) {
	if cfg.AuditTopic == "" {
		return nil, fmt.Errorf("kafka audit topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for audit fact producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.AuditTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure audit topic %s exists for audit fact producer: %w", cfg.AuditTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false, // Synchronous writes so the poller only marks facts the broker accepted
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write audit fact messages", "topic", cfg.AuditTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote audit fact messages", "topic", cfg.AuditTopic, "count", len(messages))
			}
		},
	}

	return &AuditFactProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.AuditTopic,
	}, nil
}

func (p *AuditFactProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for audit fact producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via audit fact producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via audit fact producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via audit fact producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *AuditFactProducer) Close() error {
	p.logger.Info("Closing audit fact Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close audit fact kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
