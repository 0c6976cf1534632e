package services

import (
	"context"

	"github.com/tripsync/portal/internal/domain/entities"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// TravelerDashboard is what a signed-in traveler sees on their dashboard
type TravelerDashboard struct {
	User     entities.User            `json:"user"`
	Bookings *BookingList             `json:"bookings"`
	Offers   []entities.TravelPackage `json:"offers"`
}

type TravelerService struct {
	bookings *BookingService
}

func NewTravelerService(bookings *BookingService) *TravelerService {
	return &TravelerService{bookings: bookings}
}

// Dashboard returns the traveler's bookings alongside the fixed demo offers
func (s *TravelerService) Dashboard(ctx context.Context, sess *Session) (*TravelerDashboard, error) {
	user := sess.User()
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("sign in to view your dashboard")
	}
	bookings, err := s.bookings.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &TravelerDashboard{User: *user, Bookings: bookings, Offers: entities.DemoPackages()}, nil
}
