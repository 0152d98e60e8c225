// Package broker publishes trip events to a message broker.
package broker

import (
	"context"

	"go.uber.org/zap"
)

// Message is one event ready for publication.
type Message struct {
	// Key routes the message: a Kafka partition key or an AMQP routing key.
	Key  string
	Body []byte
}

// Publisher delivers messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes messages to the log instead of a broker.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher for environments without a broker.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info("event", zap.String("key", msg.Key), zap.ByteString("body", msg.Body))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
