package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/providers"
)

// CacheWarmingService keeps the saved package listing fresh so the catalog
// can still be served when the travel service goes down.
type CacheWarmingService struct {
	catalog providers.PackageCatalog
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(catalog providers.PackageCatalog) *CacheWarmingService {
	return &CacheWarmingService{catalog: catalog}
}

// WarmCache loads the full public listing once. A successful remote load is
// saved by the catalog as a side effect.
func (s *CacheWarmingService) WarmCache(ctx context.Context) providers.ListingSource {
	listing := s.catalog.List(ctx, providers.PackageQuery{})
	level := zerolog.DebugLevel
	if listing.Source != providers.ListingSourceRemote {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Str("source", string(listing.Source)).
		Str("warning", listing.Warning).
		Int("packages", len(listing.Packages)).
		Msg("package cache warming finished")
	return listing.Source
}

// StartPeriodicWarming warms immediately and then every interval until ctx is done.
// A non-positive interval only performs the initial warm.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	s.WarmCache(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				s.WarmCache(warmCtx)
				cancel()
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
