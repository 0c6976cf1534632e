package events

import (
	"context"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
)

// MemoryEventBus delivers events to subscribers in the same process.
// It is used when Redis is not configured.
type MemoryEventBus struct {
	hub *hub
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{hub: newHub()}
}

func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.PackageEvent) error {
	b.hub.broadcast(channel, event)
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PackageEvent, error) {
	ch, _ := b.hub.add(channel)
	go func() {
		<-ctx.Done()
		b.hub.remove(channel, ch)
	}()
	return ch, nil
}

func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.hub.drop(channel)
	return nil
}

func (b *MemoryEventBus) Close() error {
	for _, channel := range b.hub.channels() {
		b.hub.drop(channel)
	}
	return nil
}
