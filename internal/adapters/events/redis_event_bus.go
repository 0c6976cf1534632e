package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	redisclient "github.com/tripsync/portal/internal/infrastructure/clients/redis"
)

// RedisEventBus fans package events out across portal instances with Redis Pub/Sub
type RedisEventBus struct {
	client        *redisclient.Client
	hub           *hub
	mu            sync.Mutex
	subscriptions map[string]*redis.PubSub
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		hub:           newHub(),
		subscriptions: make(map[string]*redis.PubSub),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to every instance subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.PackageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("package_id", event.PackageID).Msg("published package event")
	return nil
}

// Subscribe opens the Redis subscription on first use and adds a local subscriber
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PackageEvent, error) {
	b.mu.Lock()
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub)
	}
	b.mu.Unlock()

	eventChan, _ := b.hub.add(channel)
	log.Info().Str("channel", channel).Int("subscribers", b.hub.count(channel)).Msg("subscribed to channel")

	go func() {
		<-ctx.Done()
		if last := b.hub.remove(channel, eventChan); last {
			b.closeSubscription(channel)
		}
	}()

	return eventChan, nil
}

func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.hub.drop(channel)
				return
			}

			var event entities.PackageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
				continue
			}
			b.hub.broadcast(channel, &event)
		}
	}
}

func (b *RedisEventBus) closeSubscription(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pubsub, ok := b.subscriptions[channel]
	if !ok {
		return
	}
	if err := pubsub.Close(); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to close subscription")
	}
	delete(b.subscriptions, channel)
	log.Info().Str("channel", channel).Msg("closed subscription")
}

// Unsubscribe drops local subscribers and the Redis subscription of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.hub.drop(channel)
	b.closeSubscription(channel)
	log.Info().Str("channel", channel).Msg("unsubscribed")
	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	channels := make([]string, 0, len(b.subscriptions))
	for channel := range b.subscriptions {
		channels = append(channels, channel)
	}
	b.mu.Unlock()

	for _, channel := range channels {
		b.hub.drop(channel)
		b.closeSubscription(channel)
	}

	log.Info().Msg("event bus closed")
	return nil
}
