package events

import (
	"impact-platform/internal/config"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriter builds the writer for the transaction lifecycle topic.
// Returns nil when no brokers are configured, which disables publishing.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},    // hash on the holder key keeps one wallet's events in order
		RequiredAcks: kafka.RequireOne, // wait for the leader acknowledgement
		Async:        false,
		MaxAttempts:  10,
	}
}
