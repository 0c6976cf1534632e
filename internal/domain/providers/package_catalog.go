package providers

import (
	"context"

	"github.com/tripsync/portal/internal/domain/entities"
)

// ListingSource says where a package listing came from
type ListingSource string

const (
	ListingSourceRemote ListingSource = "remote"
	ListingSourceCache  ListingSource = "cache"
	ListingSourceEmpty  ListingSource = "empty"
)

// PackageListing is a package list plus its provenance
type PackageListing struct {
	Packages []entities.TravelPackage `json:"packages"`
	Source   ListingSource            `json:"source"`
	Warning  string                   `json:"warning,omitempty"`
}

// PackageCatalog reads the public catalog with offline fallback
type PackageCatalog interface {
	// List never fails. Remote errors degrade to cached or empty listings.
	List(ctx context.Context, query PackageQuery) PackageListing

	// Get loads one package, falling back to cached and demo packages
	Get(ctx context.Context, id string) (*entities.TravelPackage, error)

	// Invalidate drops cached listings
	Invalidate(ctx context.Context) error
}
