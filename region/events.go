package region

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/dailyyoga/storefront-edge/kafka"
	"github.com/dailyyoga/storefront-edge/logger"
	"go.uber.org/zap"
)

// Region lifecycle events emitted by the commerce backend
const (
	EventRegionCreated = "region.created"
	EventRegionUpdated = "region.updated"
	EventRegionDeleted = "region.deleted"
)

// Event is a commerce backend event as published on the events topic
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
	Tags []string        `json:"tags,omitempty"`
}

// Affects reports whether e changes the region mapping tagged tag
func (e Event) Affects(tag string) bool {
	switch e.Name {
	case EventRegionCreated, EventRegionUpdated, EventRegionDeleted:
		return true
	}
	return slices.Contains(e.Tags, tag)
}

// EventHandler invalidates the resolver on region events
type EventHandler struct {
	logger   logger.Logger
	resolver *Resolver
	tag      string
}

// NewEventHandler creates a handler invalidating resolver
func NewEventHandler(log logger.Logger, resolver *Resolver) *EventHandler {
	return &EventHandler{
		logger:   log,
		resolver: resolver,
		tag:      resolver.config.Tag(),
	}
}

// Handle is a kafka.ConsumerMsgHandler. Malformed messages are logged and
// acknowledged; retrying them cannot succeed.
func (h *EventHandler) Handle(_ context.Context, msg *kafka.Message) error {
	var e Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		h.logger.Warn("dropping malformed region event", zap.Error(ErrInvalidEvent(err)))
		return nil
	}

	if !e.Affects(h.tag) {
		h.logger.Debug("ignoring event", zap.String("event", e.Name))
		return nil
	}

	trigger := e.Name
	if trigger == "" {
		trigger = "tag"
	}
	h.resolver.Invalidate(trigger)
	h.logger.Info("region mapping invalidated by event", zap.String("event", e.Name))
	return nil
}
