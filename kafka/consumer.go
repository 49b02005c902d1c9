package kafka

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dailyyoga/storefront-edge/logger"
)

type defaultConsumer struct {
	consumerInstances []*consumeInstance

	closed atomic.Bool
}

// NewConsumer validates the cluster connection and subscribes
// config.InstanceNum consumer instances to the configured topics
func NewConsumer(log logger.Logger, config *ConsumerConfig) (Consumer, error) {
	if config == nil {
		config = DefaultConsumerConfig()
	} else {
		config = config.MergeDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := validateKafkaCluster(log, config.Brokers); err != nil {
		return nil, err
	}

	instances := make([]*consumeInstance, 0, config.InstanceNum)
	for i := 0; i < config.InstanceNum; i++ {
		name := fmt.Sprintf("%s-instance-%d", config.GroupID, i+1)
		instance, err := newConsumeInstance(name, config, log)
		if err != nil {
			for _, started := range instances {
				_ = started.Close()
			}
			return nil, err
		}
		instances = append(instances, instance)
	}

	return &defaultConsumer{consumerInstances: instances}, nil
}

// Start starts every instance's consume loop
func (c *defaultConsumer) Start(ctx context.Context, handler ConsumerMsgHandler) error {
	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	for _, instance := range c.consumerInstances {
		if err := instance.Start(ctx, handler); err != nil {
			return err
		}
	}
	return nil
}

// Close stops every consume loop and closes the underlying consumers
func (c *defaultConsumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if len(c.consumerInstances) == 0 {
		return ErrNoConsumerInstances
	}

	for _, instance := range c.consumerInstances {
		if err := instance.Close(); err != nil {
			return err
		}
	}
	return nil
}
