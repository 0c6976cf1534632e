package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/observability"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// PackageCache is a read-through cache of the public catalog. It prefers the
// remote service and falls back to the last good listing while it is younger
// than the staleness window.
type PackageCache struct {
	api     providers.TravelAPI
	store   providers.StorageProvider
	ttl     time.Duration
	metrics *observability.Metrics
	now     func() time.Time
}

// NewPackageCache creates a package cache over the shared (unscoped) store
func NewPackageCache(api providers.TravelAPI, store providers.StorageProvider, ttl time.Duration, metrics *observability.Metrics) *PackageCache {
	return &PackageCache{
		api:     api,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

var _ providers.PackageCatalog = (*PackageCache)(nil)

// List loads packages matching query. It never fails: remote errors degrade to
// the cached listing or to an empty list with a warning.
func (c *PackageCache) List(ctx context.Context, query providers.PackageQuery) providers.PackageListing {
	pkgs, err := c.api.ListPackages(ctx, query)
	if err == nil {
		if pkgs == nil {
			pkgs = []entities.TravelPackage{}
		}
		if isFullListing(query) {
			c.remember(ctx, pkgs)
		}
		return providers.PackageListing{Packages: pkgs, Source: providers.ListingSourceRemote}
	}

	logger := observability.LoggerFromContext(ctx)
	logger.Warn().Err(err).Msg("package listing unavailable, trying cache")

	cached, ok := c.cached(ctx)
	if !ok {
		observability.RecordCacheMiss(ctx, c.metrics, providers.KeyPublicPackages)
		return providers.PackageListing{
			Packages: []entities.TravelPackage{},
			Source:   providers.ListingSourceEmpty,
			Warning:  "Packages are unavailable right now",
		}
	}

	observability.RecordCacheHit(ctx, c.metrics, providers.KeyPublicPackages)
	filtered := make([]entities.TravelPackage, 0, len(cached))
	for _, p := range cached {
		if p.InCategory(query.Category) {
			filtered = append(filtered, p)
		}
	}
	if query.Limit > 0 && len(filtered) > query.Limit {
		filtered = filtered[:query.Limit]
	}
	return providers.PackageListing{
		Packages: filtered,
		Source:   providers.ListingSourceCache,
		Warning:  "Showing saved packages while offline",
	}
}

// Get loads one package: the remote service first, then the cached listing,
// then the built-in demo packages. A package the remote service reports as
// missing is not served from the cached listing, since it may have been deleted.
func (c *PackageCache) Get(ctx context.Context, id string) (*entities.TravelPackage, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("package id is required")
	}

	pkg, err := c.api.GetPackage(ctx, id)
	if err == nil {
		return pkg, nil
	}
	gone := apperrors.IsType(err, apperrors.ErrorTypeNotFound)

	if !gone {
		if cached, ok := c.cached(ctx); ok {
			for i := range cached {
				if cached[i].ID == id {
					observability.RecordCacheHit(ctx, c.metrics, providers.KeyPublicPackages)
					return &cached[i], nil
				}
			}
		}
	}

	// The remote service rejects ids that are not its own, demo ids included.
	if demo, ok := entities.FindDemoPackage(id); ok {
		return &demo, nil
	}

	if gone {
		return nil, err
	}
	log.Debug().Err(err).Str("package_id", id).Msg("package unavailable remotely and not cached")
	return nil, apperrors.NewNotFoundError("package " + id + " not found")
}

// Invalidate drops the cached listing
func (c *PackageCache) Invalidate(ctx context.Context) error {
	return errors.Join(
		c.store.Delete(ctx, providers.KeyPublicPackages),
		c.store.Delete(ctx, providers.KeyPackagesCacheTime),
	)
}

func (c *PackageCache) remember(ctx context.Context, pkgs []entities.TravelPackage) {
	if err := storage.SetJSON(ctx, c.store, providers.KeyPublicPackages, pkgs); err != nil {
		log.Warn().Err(err).Msg("failed to cache package listing")
		return
	}
	stamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.store.Set(ctx, providers.KeyPackagesCacheTime, stamp); err != nil {
		log.Warn().Err(err).Msg("failed to stamp package cache")
	}
}

// cached returns the stored listing if it is inside the staleness window.
func (c *PackageCache) cached(ctx context.Context) ([]entities.TravelPackage, bool) {
	rawStamp, err := c.store.Get(ctx, providers.KeyPackagesCacheTime)
	if err != nil {
		return nil, false
	}
	millis, err := strconv.ParseInt(rawStamp, 10, 64)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(time.UnixMilli(millis)) > c.ttl {
		log.Debug().Str("cached_at", time.UnixMilli(millis).UTC().Format(time.RFC3339)).Msg("package cache expired")
		return nil, false
	}

	var pkgs []entities.TravelPackage
	found, err := storage.GetJSON(ctx, c.store, providers.KeyPublicPackages, &pkgs)
	if err != nil || !found {
		return nil, false
	}
	return pkgs, true
}

func isFullListing(q providers.PackageQuery) bool {
	return (q.Category == "" || q.Category == entities.AllCategories) && q.Limit == 0
}
