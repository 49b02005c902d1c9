// Package kafka consumes commerce backend events from Kafka.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed kafka message
type Message struct {
	Value          []byte
	Key            []byte
	Timestamp      time.Time
	TopicPartition TopicPartition
	Headers        []Header
}

// GetHeader returns the value of the first header named k
func (m *Message) GetHeader(k string) []byte {
	for _, header := range m.Headers {
		if header.Key == k {
			return header.Value
		}
	}
	return nil
}

// TopicPartition is the topic and partition a message was read from
type TopicPartition struct {
	Topic     *string
	Partition int32
	Offset    Offset
}

// Offset is the offset of a message within its partition
type Offset int64

// Header is a message header
type Header struct {
	Key   string
	Value []byte
}

// ConsumerMsgHandler handles one message. A non-nil error is retried up to
// ConsumerConfig.MaxRetries times before the message is skipped.
type ConsumerMsgHandler func(ctx context.Context, msg *Message) error

// Consumer is a kafka consumer group member
type Consumer interface {
	Start(ctx context.Context, handler ConsumerMsgHandler) error
	Close() error
}
