package providers

import (
	"context"

	"github.com/tripsync/portal/internal/domain/entities"
)

// LoginResult is what the remote auth endpoint returns on success
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Detail      string `json:"detail"`
	Message     string `json:"message"`
}

// Registration is the payload of a sign-up
type Registration struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     entities.Role `json:"role"`
}

// PackageQuery filters the public listing
type PackageQuery struct {
	Category string
	Limit    int
}

// TravelAPI is the remote package, booking and auth service.
// Token is the caller's bearer token and may be empty for public calls.
type TravelAPI interface {
	Register(ctx context.Context, reg Registration) (string, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	ListPackages(ctx context.Context, query PackageQuery) ([]entities.TravelPackage, error)
	GetPackage(ctx context.Context, id string) (*entities.TravelPackage, error)
	CreatePackage(ctx context.Context, token string, pkg entities.TravelPackage) (*entities.TravelPackage, error)
	UpdatePackage(ctx context.Context, token, id string, pkg entities.TravelPackage) (*entities.TravelPackage, error)
	DeletePackage(ctx context.Context, token, id string) error
	ApprovePackage(ctx context.Context, token, id string) (*entities.TravelPackage, error)
	RejectPackage(ctx context.Context, token, id string) (*entities.TravelPackage, error)
	ListPendingPackages(ctx context.Context, token string) ([]entities.TravelPackage, error)
	ListAllPackages(ctx context.Context, token string) ([]entities.TravelPackage, error)

	CreateBooking(ctx context.Context, token string, booking entities.Booking) (*entities.Booking, error)
	ListMyBookings(ctx context.Context, token string) ([]entities.Booking, error)
	ListAgentBookings(ctx context.Context, token string) ([]entities.Booking, error)
}
