package providers

import (
	"context"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/entities"
)

// EventBus defines the interface for publishing discovery lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.DiscoveryEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DiscoveryEvent, error)

	// Close shuts down the bus and all subscriptions
	Close() error
}
