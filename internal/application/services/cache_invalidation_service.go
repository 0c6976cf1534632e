package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
)

// CacheInvalidationService drops cached package listings whenever a package
// is created, reviewed or deleted by any replica.
type CacheInvalidationService struct {
	catalog  providers.PackageCatalog
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(catalog providers.PackageCatalog, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		catalog:  catalog,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelPackageUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to package updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Str("channel", providers.EventChannelPackageUpdates).Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.PackageEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.PackageEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := log.With().
		Str("event_id", event.ID).
		Str("package_id", event.PackageID).
		Str("event_type", string(event.EventType)).
		Logger()

	if err := s.catalog.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate package listings")
		return
	}
	logger.Debug().Msg("invalidated package listings")
}
