package broker

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes messages to a single Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
// Writes are asynchronous; delivery failures are reported to onError.
func NewKafkaPublisher(brokers []string, topic string, onError func(error)) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			Async:                  true,
			Completion: func(_ []kafka.Message, err error) {
				if err != nil && onError != nil {
					onError(err)
				}
			},
		},
	}
}

// Publish writes msg keyed by its Key so events of one trip stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Body,
	}); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
