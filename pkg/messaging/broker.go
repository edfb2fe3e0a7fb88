package messaging

import (
	"context"
	"errors"
)

// ChannelPrefix namespaces every published event type.
const ChannelPrefix = "ehr."

// ErrBrokerUnavailable is returned while the broker's circuit is open.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

// Broker publishes raw event payloads to a named channel.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}

// Channel returns the channel an event type is published on.
func Channel(eventType string) string {
	return ChannelPrefix + eventType
}
