package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/observability"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// BookingOutcome says where a confirmed booking ended up
type BookingOutcome string

const (
	BookingSaved   BookingOutcome = "saved"
	BookingOffline BookingOutcome = "offline"
	BookingGuest   BookingOutcome = "guest"
)

var bookingNotices = map[BookingOutcome]string{
	BookingSaved:   "Booking saved to your account",
	BookingOffline: "Booking saved locally (offline)",
	BookingGuest:   "Booking saved locally (guest)",
}

// BookingResult is a confirmed booking and the notice shown to the user
type BookingResult struct {
	Booking entities.Booking `json:"booking"`
	Outcome BookingOutcome   `json:"outcome"`
	Notice  string           `json:"notice"`
}

// BookingList is the bookings shown on the traveler dashboard
type BookingList struct {
	Bookings []entities.Booking      `json:"bookings"`
	Source   providers.ListingSource `json:"source"`
	Warning  string                  `json:"warning,omitempty"`
}

// BookingService confirms bookings remotely when signed in and always keeps
// a copy in the client's store so they survive offline.
type BookingService struct {
	api      providers.TravelAPI
	catalog  providers.PackageCatalog
	payments *PaymentService
	metrics  *observability.Metrics
	now      func() time.Time

	// serialises read-append-write on the local bookings lists
	mu sync.Mutex
}

// NewBookingService creates a new booking service
func NewBookingService(api providers.TravelAPI, catalog providers.PackageCatalog, payments *PaymentService, metrics *observability.Metrics) *BookingService {
	return &BookingService{
		api:      api,
		catalog:  catalog,
		payments: payments,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Confirm books packageID for the requested date and party size
func (s *BookingService) Confirm(ctx context.Context, sess *Session, packageID string, req entities.BookingRequest) (*BookingResult, error) {
	if err := s.validateDate(req.Date); err != nil {
		return nil, err
	}
	pkg, err := s.catalog.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	booking := entities.NewBooking(*pkg, req, s.now())
	booking.UserEmail = sess.Email()
	return s.place(ctx, sess, booking)
}

// Checkout runs the full booking form: it takes payment for the party and
// then records the booking against the traveler's details.
func (s *BookingService) Checkout(ctx context.Context, sess *Session, packageID string, info entities.TravelerInfo) (*BookingResult, error) {
	if strings.TrimSpace(info.FullName) == "" || strings.TrimSpace(info.Email) == "" || info.Date == "" {
		return nil, apperrors.NewValidationError("Please fill all required fields")
	}
	if err := s.validateDate(info.Date); err != nil {
		return nil, err
	}
	pkg, err := s.catalog.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	booking := entities.NewBooking(*pkg, entities.BookingRequest{Date: info.Date, Persons: info.Travelers}, s.now())
	payment, err := s.payments.Pay(ctx, booking.Total)
	if err != nil {
		return nil, err
	}
	booking.UserEmail = sess.Email()
	booking.CustomerEmail = strings.TrimSpace(info.Email)
	booking.PaymentID = payment.ID
	booking.PaymentStatus = payment.Status
	return s.place(ctx, sess, booking)
}

func (s *BookingService) place(ctx context.Context, sess *Session, booking entities.Booking) (*BookingResult, error) {
	outcome := BookingGuest
	if token := sess.Token(); token != "" {
		remote, err := s.api.CreateBooking(ctx, token, booking)
		if err != nil {
			log.Warn().Err(err).Str("package_id", booking.PackageID).Msg("remote booking failed, keeping local copy")
			outcome = BookingOffline
		} else {
			outcome = BookingSaved
			booking = mergeBooking(booking, remote)
		}
	}

	if err := s.appendLocal(ctx, sess, booking); err != nil {
		observability.RecordBooking(ctx, s.metrics, "error")
		return nil, err
	}

	observability.RecordBooking(ctx, s.metrics, string(outcome))
	log.Info().
		Str("booking_id", booking.ID).
		Str("package_id", booking.PackageID).
		Str("outcome", string(outcome)).
		Msg("booking confirmed")
	return &BookingResult{Booking: booking, Outcome: outcome, Notice: bookingNotices[outcome]}, nil
}

// List returns the user's bookings from the remote service, or the local
// copy when signed out or unreachable.
func (s *BookingService) List(ctx context.Context, sess *Session) (*BookingList, error) {
	if token := sess.Token(); token != "" {
		remote, err := s.api.ListMyBookings(ctx, token)
		if err == nil {
			if remote == nil {
				remote = []entities.Booking{}
			}
			return &BookingList{Bookings: remote, Source: providers.ListingSourceRemote}, nil
		}
		log.Warn().Err(err).Str("email", sess.Email()).Msg("failed to load remote bookings, using local copy")
		local, lerr := s.Local(ctx, sess)
		if lerr != nil {
			return nil, lerr
		}
		return &BookingList{Bookings: local, Source: providers.ListingSourceCache, Warning: "Showing bookings saved on this device"}, nil
	}

	local, err := s.Local(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &BookingList{Bookings: local, Source: providers.ListingSourceCache}, nil
}

// Local returns the bookings stored on this client for the session's user
func (s *BookingService) Local(ctx context.Context, sess *Session) ([]entities.Booking, error) {
	bookings := []entities.Booking{}
	if _, err := storage.GetJSON(ctx, sess.Store(), providers.BookingsKey(sess.Email()), &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel removes a locally stored booking
func (s *BookingService) Cancel(ctx context.Context, sess *Session, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := providers.BookingsKey(sess.Email())
	bookings, err := s.Local(ctx, sess)
	if err != nil {
		return err
	}
	kept := make([]entities.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != bookingID {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(bookings) {
		return apperrors.NewNotFoundError("booking not found")
	}
	return storage.SetJSON(ctx, sess.Store(), key, kept)
}

func (s *BookingService) appendLocal(ctx context.Context, sess *Session, booking entities.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.Local(ctx, sess)
	if err != nil {
		log.Warn().Err(err).Str("client_id", sess.ClientID).Msg("local bookings unreadable, starting a new list")
		bookings = []entities.Booking{}
	}
	bookings = append(bookings, booking)
	return storage.SetJSON(ctx, sess.Store(), providers.BookingsKey(sess.Email()), bookings)
}

// validateDate accepts a YYYY-MM-DD date no earlier than today
func (s *BookingService) validateDate(date string) error {
	if date == "" {
		return apperrors.NewValidationError("Please select a travel date")
	}
	current := s.now()
	day, err := time.ParseInLocation(entities.DateLayout, date, current.Location())
	if err != nil {
		return apperrors.NewValidationError("travel date must be formatted as YYYY-MM-DD")
	}
	if day.Before(now.With(current).BeginningOfDay()) {
		return apperrors.NewValidationError("travel date cannot be in the past")
	}
	return nil
}

// mergeBooking prefers the server's record and keeps local fields it left blank
func mergeBooking(local entities.Booking, remote *entities.Booking) entities.Booking {
	if remote == nil {
		return local
	}
	merged := *remote
	if merged.ID == "" {
		merged.ID = local.ID
	}
	if merged.PackageID == "" {
		merged.PackageID = local.PackageID
	}
	if merged.PackageTitle == "" {
		merged.PackageTitle = local.PackageTitle
	}
	if merged.PackageLocation == "" {
		merged.PackageLocation = local.PackageLocation
	}
	if merged.Date == "" {
		merged.Date = local.Date
	}
	if merged.Persons == 0 {
		merged.Persons = local.Persons
	}
	if merged.Total == 0 {
		merged.Total = local.Total
	}
	if merged.CreatedAt == "" {
		merged.CreatedAt = local.CreatedAt
	}
	if merged.CustomerEmail == "" {
		merged.CustomerEmail = local.CustomerEmail
	}
	if merged.UserEmail == "" {
		merged.UserEmail = local.UserEmail
	}
	if merged.PaymentID == "" {
		merged.PaymentID = local.PaymentID
		merged.PaymentStatus = local.PaymentStatus
	}
	return merged
}
