package services

import (
	"context"
	"sync"
	"time"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// stubCatalog serves a fixed listing
type stubCatalog struct {
	mu          sync.Mutex
	listing     providers.PackageListing
	invalidated int
	loads       int
	lastQuery   providers.PackageQuery
}

func newStubCatalog(pkgs ...entities.TravelPackage) *stubCatalog {
	return &stubCatalog{listing: providers.PackageListing{Packages: pkgs, Source: providers.ListingSourceRemote}}
}

func (c *stubCatalog) List(_ context.Context, query providers.PackageQuery) providers.PackageListing {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	c.lastQuery = query
	return c.listing
}

func (c *stubCatalog) Get(_ context.Context, id string) (*entities.TravelPackage, error) {
	for _, p := range c.listing.Packages {
		if p.ID == id {
			pkg := p
			return &pkg, nil
		}
	}
	if demo, ok := entities.FindDemoPackage(id); ok {
		return &demo, nil
	}
	return nil, apperrors.NewNotFoundError("package not found")
}

func (c *stubCatalog) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	return nil
}

func (c *stubCatalog) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

func signedIn(store providers.StorageProvider, user entities.User, token string) *Session {
	sess := NewSession("c1", store)
	if err := sess.Login(context.Background(), user, token); err != nil {
		panic(err)
	}
	return sess
}

func goaTrip() entities.TravelPackage {
	return entities.TravelPackage{
		ID:          "p1",
		Title:       "Goa Trip",
		Description: "Beaches and forts",
		Price:       5000,
		Days:        3,
		Location:    "Goa",
		Category:    "beach",
		Status:      entities.PackageStatusApproved,
		CreatedBy:   "agent@x.com",
	}
}
