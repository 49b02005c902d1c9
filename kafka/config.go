package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ConsumerConfig is the configuration for the kafka consumer
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string

	// MaxRetries is how often a failing handler is called for one message
	// default: 3
	MaxRetries int

	// InstanceNum is the number of consumer instances in this process
	// default: 1
	InstanceNum int

	// AutoOffsetReset is "earliest" or "latest"
	// default: "latest"
	AutoOffsetReset string

	// EnableAutoCommit commits offsets in the background instead of per message
	// default: false
	EnableAutoCommit bool

	// AutoCommitInterval is only used when EnableAutoCommit is true
	// default: 5s
	AutoCommitInterval time.Duration

	// SessionTimeout default: 30s
	SessionTimeout time.Duration

	// MaxPollInterval is the maximum time between two polls
	// default: 120s
	MaxPollInterval time.Duration

	// PollTimeout bounds one Poll call, which is how fast Close is noticed
	// default: 100ms
	PollTimeout time.Duration

	// SecurityProtocol, only PLAINTEXT is supported for now
	// default: "PLAINTEXT"
	SecurityProtocol string

	// Debug enables librdkafka consumer debug logs
	Debug bool
}

// DefaultConsumerConfig returns the default consumer configuration
func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		MaxRetries:         3,
		InstanceNum:        1,
		AutoOffsetReset:    "latest",
		AutoCommitInterval: 5 * time.Second,
		SessionTimeout:     30 * time.Second,
		MaxPollInterval:    120 * time.Second,
		PollTimeout:        100 * time.Millisecond,
		SecurityProtocol:   "PLAINTEXT",
	}
}

// MergeDefaults fills zero fields with their default values
func (c *ConsumerConfig) MergeDefaults() *ConsumerConfig {
	defaults := DefaultConsumerConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.InstanceNum == 0 {
		c.InstanceNum = defaults.InstanceNum
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = defaults.AutoOffsetReset
	}
	if c.AutoCommitInterval == 0 {
		c.AutoCommitInterval = defaults.AutoCommitInterval
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = defaults.SessionTimeout
	}
	if c.MaxPollInterval == 0 {
		c.MaxPollInterval = defaults.MaxPollInterval
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = defaults.PollTimeout
	}
	if c.SecurityProtocol == "" {
		c.SecurityProtocol = defaults.SecurityProtocol
	}
	return c
}

// Validate validates the consumer configuration
func (c *ConsumerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrInvalidConfig("brokers are required")
	}
	if c.GroupID == "" {
		return ErrInvalidConfig("group_id is required")
	}
	if len(c.Topics) == 0 {
		return ErrInvalidConfig("topics are required")
	}
	if c.AutoOffsetReset != "earliest" && c.AutoOffsetReset != "latest" {
		return ErrInvalidConfig(
			fmt.Sprintf("invalid auto_offset_reset: %s, must be either 'earliest' or 'latest'", c.AutoOffsetReset),
		)
	}
	if c.MaxRetries < 1 {
		return ErrInvalidConfig("max_retries must be at least 1")
	}
	if c.InstanceNum < 1 {
		return ErrInvalidConfig("instance_num must be at least 1")
	}
	if c.EnableAutoCommit && c.AutoCommitInterval <= 0 {
		return ErrInvalidConfig("auto_commit_interval must be greater than 0 when enable_auto_commit is true")
	}
	if c.SessionTimeout <= 0 {
		return ErrInvalidConfig("session_timeout must be greater than 0")
	}
	if c.MaxPollInterval <= 0 {
		return ErrInvalidConfig("max_poll_interval must be greater than 0")
	}
	if c.PollTimeout <= 0 {
		return ErrInvalidConfig("poll_timeout must be greater than 0")
	}
	return nil
}

// BuildConfigMap converts the config into librdkafka settings
func (c *ConsumerConfig) BuildConfigMap() *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":    strings.Join(c.Brokers, ","),
		"group.id":             c.GroupID,
		"auto.offset.reset":    strings.ToLower(c.AutoOffsetReset),
		"enable.auto.commit":   c.EnableAutoCommit,
		"session.timeout.ms":   int(c.SessionTimeout.Milliseconds()),
		"max.poll.interval.ms": int(c.MaxPollInterval.Milliseconds()),
		"security.protocol":    c.SecurityProtocol,
	}

	if c.EnableAutoCommit {
		_ = configMap.SetKey("auto.commit.interval.ms", int(c.AutoCommitInterval.Milliseconds()))
	}
	if c.Debug {
		_ = configMap.SetKey("debug", "consumer,cgrp,topic,fetch")
	}
	return configMap
}
