package services

import (
	"context"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 100000

	// PopularLimit is how many packages the popular strip shows
	PopularLimit = 6
)

// Filters are the catalog's price range and category controls
type Filters struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Category string  `json:"category"`
}

// DefaultFilters is the unfiltered state the reset control returns to
func DefaultFilters() Filters {
	return Filters{Min: DefaultMinPrice, Max: DefaultMaxPrice, Category: entities.AllCategories}
}

// CatalogView is what the home page renders
type CatalogView struct {
	Packages   []entities.TravelPackage `json:"packages"`
	Source     providers.ListingSource  `json:"source"`
	Warning    string                   `json:"warning,omitempty"`
	Query      string                   `json:"query,omitempty"`
	Filters    Filters                  `json:"filters"`
	SlideIndex int                      `json:"slide_index"`
}

// CatalogService serves the package catalog. Every search or filter starts
// from a freshly loaded, unfiltered listing and never composes with earlier ones.
type CatalogService struct {
	catalog  providers.PackageCatalog
	carousel *Carousel
}

// NewCatalogService creates a new catalog service. carousel may be nil.
func NewCatalogService(catalog providers.PackageCatalog, carousel *Carousel) *CatalogService {
	return &CatalogService{catalog: catalog, carousel: carousel}
}

// Load returns the unfiltered catalog with the hero carousel's current slide
func (s *CatalogService) Load(ctx context.Context) *CatalogView {
	listing := s.catalog.List(ctx, providers.PackageQuery{})
	view := newView(listing, listing.Packages, DefaultFilters())
	if s.carousel != nil {
		s.carousel.SetSize(len(listing.Packages))
		view.SlideIndex = s.carousel.Index()
	}
	return view
}

// Search matches q against title, description and location. An empty query
// returns everything and drops any earlier filters.
func (s *CatalogService) Search(ctx context.Context, q string) *CatalogView {
	listing := s.catalog.List(ctx, providers.PackageQuery{})
	matched := make([]entities.TravelPackage, 0, len(listing.Packages))
	for _, p := range listing.Packages {
		if p.Matches(q) {
			matched = append(matched, p)
		}
	}
	view := newView(listing, matched, DefaultFilters())
	view.Query = q
	return view
}

// ByCategory keeps packages of one category. "All" keeps everything.
func (s *CatalogService) ByCategory(ctx context.Context, category string) *CatalogView {
	filters := DefaultFilters()
	if category != "" {
		filters.Category = category
	}
	return s.ApplyFilters(ctx, filters)
}

// ApplyFilters keeps packages priced within [Min, Max] in the chosen category
func (s *CatalogService) ApplyFilters(ctx context.Context, f Filters) *CatalogView {
	if f.Category == "" {
		f.Category = entities.AllCategories
	}
	listing := s.catalog.List(ctx, providers.PackageQuery{})
	matched := make([]entities.TravelPackage, 0, len(listing.Packages))
	for _, p := range listing.Packages {
		if p.Price >= f.Min && p.Price <= f.Max && p.InCategory(f.Category) {
			matched = append(matched, p)
		}
	}
	return newView(listing, matched, f)
}

// Reset reloads the catalog with default filters
func (s *CatalogService) Reset(ctx context.Context) *CatalogView {
	listing := s.catalog.List(ctx, providers.PackageQuery{})
	return newView(listing, listing.Packages, DefaultFilters())
}

// Popular returns the first few packages for the popular strip. Offline it is cut
// from the saved listing.
func (s *CatalogService) Popular(ctx context.Context) providers.PackageListing {
	return s.catalog.List(ctx, providers.PackageQuery{Limit: PopularLimit})
}

// Get loads one package for the detail page
func (s *CatalogService) Get(ctx context.Context, id string) (*entities.TravelPackage, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("package id is required")
	}
	return s.catalog.Get(ctx, id)
}

func newView(listing providers.PackageListing, pkgs []entities.TravelPackage, f Filters) *CatalogView {
	return &CatalogView{
		Packages: pkgs,
		Source:   listing.Source,
		Warning:  listing.Warning,
		Filters:  f,
	}
}
