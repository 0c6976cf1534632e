package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
)

// TravelAPI is a testify mock of providers.TravelAPI
type TravelAPI struct {
	mock.Mock
}

var _ providers.TravelAPI = (*TravelAPI)(nil)

func (m *TravelAPI) Register(ctx context.Context, reg providers.Registration) (string, error) {
	args := m.Called(ctx, reg)
	return args.String(0), args.Error(1)
}

func (m *TravelAPI) Login(ctx context.Context, email, password string) (*providers.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.LoginResult), args.Error(1)
}

func (m *TravelAPI) ListPackages(ctx context.Context, query providers.PackageQuery) ([]entities.TravelPackage, error) {
	args := m.Called(ctx, query)
	return packageList(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) GetPackage(ctx context.Context, id string) (*entities.TravelPackage, error) {
	args := m.Called(ctx, id)
	return packagePtr(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) CreatePackage(ctx context.Context, token string, pkg entities.TravelPackage) (*entities.TravelPackage, error) {
	args := m.Called(ctx, token, pkg)
	return packagePtr(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) UpdatePackage(ctx context.Context, token, id string, pkg entities.TravelPackage) (*entities.TravelPackage, error) {
	args := m.Called(ctx, token, id, pkg)
	return packagePtr(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) DeletePackage(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *TravelAPI) ApprovePackage(ctx context.Context, token, id string) (*entities.TravelPackage, error) {
	args := m.Called(ctx, token, id)
	return packagePtr(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) RejectPackage(ctx context.Context, token, id string) (*entities.TravelPackage, error) {
	args := m.Called(ctx, token, id)
	return packagePtr(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) ListPendingPackages(ctx context.Context, token string) ([]entities.TravelPackage, error) {
	args := m.Called(ctx, token)
	return packageList(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) ListAllPackages(ctx context.Context, token string) ([]entities.TravelPackage, error) {
	args := m.Called(ctx, token)
	return packageList(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) CreateBooking(ctx context.Context, token string, booking entities.Booking) (*entities.Booking, error) {
	args := m.Called(ctx, token, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *TravelAPI) ListMyBookings(ctx context.Context, token string) ([]entities.Booking, error) {
	args := m.Called(ctx, token)
	return bookingList(args.Get(0)), args.Error(1)
}

func (m *TravelAPI) ListAgentBookings(ctx context.Context, token string) ([]entities.Booking, error) {
	args := m.Called(ctx, token)
	return bookingList(args.Get(0)), args.Error(1)
}

func packagePtr(v interface{}) *entities.TravelPackage {
	if v == nil {
		return nil
	}
	return v.(*entities.TravelPackage)
}

func packageList(v interface{}) []entities.TravelPackage {
	if v == nil {
		return nil
	}
	return v.([]entities.TravelPackage)
}

func bookingList(v interface{}) []entities.Booking {
	if v == nil {
		return nil
	}
	return v.([]entities.Booking)
}
