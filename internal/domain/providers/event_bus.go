package providers

import (
	"context"

	"github.com/tripsync/portal/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to package events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PackageEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PackageEvent, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelPackageUpdates carries every package lifecycle change
	EventChannelPackageUpdates = "packages:updates"
)
