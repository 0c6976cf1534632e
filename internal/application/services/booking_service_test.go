package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/portal/internal/adapters/cache"
	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/domain/providers/mocks"
	"github.com/tripsync/portal/internal/infrastructure/clients/tripapi"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

func newTestBookingService(api providers.TravelAPI, catalog providers.PackageCatalog) *BookingService {
	svc := NewBookingService(api, catalog, NewPaymentService(), nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func localBookings(t *testing.T, store providers.StorageProvider, key string) []entities.Booking {
	t.Helper()
	var out []entities.Booking
	_, err := storage.GetJSON(context.Background(), store, key, &out)
	require.NoError(t, err)
	return out
}

func TestBookingService_GuestBooksDemoPackageOffline(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("GetPackage", mock.Anything, "pkg_basic").Return(nil, apperrors.NewExternalError("request failed", errors.New("connection refused")))
	shared := storage.NewMemoryStore()
	catalog := cache.NewPackageCache(api, shared, 24*time.Hour, nil)
	svc := newTestBookingService(api, catalog)

	store := storage.NewMemoryStore()
	sess := NewSession("c1", store)

	res, err := svc.Confirm(context.Background(), sess, "pkg_basic", entities.BookingRequest{Date: "2026-04-10", Persons: 2})
	require.NoError(t, err)

	assert.Equal(t, BookingGuest, res.Outcome)
	assert.Equal(t, "Booking saved locally (guest)", res.Notice)
	assert.Equal(t, float64(9998), res.Booking.Total)

	saved := localBookings(t, store, "ts_bookings_guest")
	require.Len(t, saved, 1)
	assert.Equal(t, "pkg_basic", saved[0].PackageID)
	assert.Equal(t, 2, saved[0].Persons)
	assert.Equal(t, float64(9998), saved[0].Total)
	api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_GuestBooksDemoPackageWhenServerRejectsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Invalid package ID"}`))
	}))
	defer server.Close()

	api := tripapi.NewClient(server.URL, tripapi.WithRetryAttempts(1))
	catalog := cache.NewPackageCache(api, storage.NewMemoryStore(), 24*time.Hour, nil)
	svc := newTestBookingService(api, catalog)

	store := storage.NewMemoryStore()
	res, err := svc.Confirm(context.Background(), NewSession("c1", store), "pkg_basic", entities.BookingRequest{Date: "2026-04-01", Persons: 2})
	require.NoError(t, err)

	assert.Equal(t, BookingGuest, res.Outcome)
	assert.Equal(t, float64(9998), res.Booking.Total)
	saved := localBookings(t, store, "ts_bookings_guest")
	require.Len(t, saved, 1)
	assert.Equal(t, float64(9998), saved[0].Total)
}

func TestBookingService_SignedInSavesRemotely(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("CreateBooking", mock.Anything, "tok", mock.MatchedBy(func(b entities.Booking) bool {
		return b.PackageID == "p1" && b.Persons == 3 && b.Total == 15000
	})).Return(&entities.Booking{ID: "srv-1", PackageID: "p1", Total: 15000}, nil)

	store := storage.NewMemoryStore()
	sess := signedIn(store, entities.User{Name: "Asha", Email: "asha@x.com", Role: entities.RoleTraveler}, "tok")
	svc := newTestBookingService(api, newStubCatalog(goaTrip()))

	res, err := svc.Confirm(context.Background(), sess, "p1", entities.BookingRequest{Date: "2026-03-01", Persons: 3})
	require.NoError(t, err)

	assert.Equal(t, BookingSaved, res.Outcome)
	assert.Equal(t, "Booking saved to your account", res.Notice)
	assert.Equal(t, "srv-1", res.Booking.ID)
	assert.Equal(t, "Goa Trip", res.Booking.PackageTitle)
	assert.Equal(t, 3, res.Booking.Persons)

	saved := localBookings(t, store, "ts_bookings_asha@x.com")
	require.Len(t, saved, 1)
	assert.Equal(t, "srv-1", saved[0].ID)
	api.AssertExpectations(t)
}

func TestBookingService_RemoteFailureFallsBackToLocal(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("CreateBooking", mock.Anything, "tok", mock.Anything).Return(nil, apperrors.NewExternalError("server error", nil))

	store := storage.NewMemoryStore()
	sess := signedIn(store, entities.User{Email: "asha@x.com", Role: entities.RoleTraveler}, "tok")
	svc := newTestBookingService(api, newStubCatalog(goaTrip()))

	for i := 0; i < 2; i++ {
		res, err := svc.Confirm(context.Background(), sess, "p1", entities.BookingRequest{Date: "2026-03-02", Persons: 0})
		require.NoError(t, err)
		assert.Equal(t, BookingOffline, res.Outcome)
		assert.Equal(t, "Booking saved locally (offline)", res.Notice)
		assert.Equal(t, 1, res.Booking.Persons)
		assert.Equal(t, "asha@x.com", res.Booking.UserEmail)
	}

	assert.Len(t, localBookings(t, store, "ts_bookings_asha@x.com"), 2)
}

func TestBookingService_ValidatesDate(t *testing.T) {
	api := new(mocks.TravelAPI)
	svc := newTestBookingService(api, newStubCatalog(goaTrip()))
	sess := NewSession("c1", storage.NewMemoryStore())

	tests := []struct {
		name string
		date string
	}{
		{name: "missing", date: ""},
		{name: "malformed", date: "10/04/2026"},
		{name: "yesterday", date: "2026-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Confirm(context.Background(), sess, "p1", entities.BookingRequest{Date: tt.date, Persons: 1})
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestBookingService_UnknownPackage(t *testing.T) {
	svc := newTestBookingService(new(mocks.TravelAPI), newStubCatalog())
	sess := NewSession("c1", storage.NewMemoryStore())

	_, err := svc.Confirm(context.Background(), sess, "nope", entities.BookingRequest{Date: "2026-04-10", Persons: 1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestBookingService_Checkout(t *testing.T) {
	api := new(mocks.TravelAPI)
	store := storage.NewMemoryStore()
	sess := NewSession("c1", store)
	svc := newTestBookingService(api, newStubCatalog(goaTrip()))

	_, err := svc.Checkout(context.Background(), sess, "p1", entities.TravelerInfo{Email: "a@x.com", Date: "2026-04-10"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	res, err := svc.Checkout(context.Background(), sess, "p1", entities.TravelerInfo{
		FullName:  "Asha Rao",
		Email:     "a@x.com",
		Travelers: 2,
		Date:      "2026-04-10",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(10000), res.Booking.Total)
	assert.Equal(t, "a@x.com", res.Booking.CustomerEmail)
	assert.Equal(t, entities.PaymentStatusSuccess, res.Booking.PaymentStatus)
	assert.NotEmpty(t, res.Booking.PaymentID)
	assert.Len(t, localBookings(t, store, "ts_bookings_guest"), 1)
}

func TestBookingService_Cancel(t *testing.T) {
	store := storage.NewMemoryStore()
	sess := NewSession("c1", store)
	svc := newTestBookingService(new(mocks.TravelAPI), newStubCatalog(goaTrip()))

	res, err := svc.Confirm(context.Background(), sess, "p1", entities.BookingRequest{Date: "2026-04-10", Persons: 1})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), sess, "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	require.NoError(t, svc.Cancel(context.Background(), sess, res.Booking.ID))
	assert.Empty(t, localBookings(t, store, "ts_bookings_guest"))
}

func TestBookingService_List(t *testing.T) {
	t.Run("remote when signed in", func(t *testing.T) {
		api := new(mocks.TravelAPI)
		remote := []entities.Booking{{ID: "srv-1", PackageID: "p1"}}
		api.On("ListMyBookings", mock.Anything, "tok").Return(remote, nil)
		sess := signedIn(storage.NewMemoryStore(), entities.User{Email: "a@x.com", Role: entities.RoleTraveler}, "tok")

		list, err := newTestBookingService(api, newStubCatalog()).List(context.Background(), sess)
		require.NoError(t, err)
		assert.Equal(t, providers.ListingSourceRemote, list.Source)
		assert.Equal(t, remote, list.Bookings)
	})

	t.Run("local copy when remote fails", func(t *testing.T) {
		api := new(mocks.TravelAPI)
		api.On("ListMyBookings", mock.Anything, "tok").Return(nil, apperrors.NewExternalError("down", nil))
		store := storage.NewMemoryStore()
		sess := signedIn(store, entities.User{Email: "a@x.com", Role: entities.RoleTraveler}, "tok")
		require.NoError(t, storage.SetJSON(context.Background(), store, "ts_bookings_a@x.com", []entities.Booking{{ID: "local-1"}}))

		list, err := newTestBookingService(api, newStubCatalog()).List(context.Background(), sess)
		require.NoError(t, err)
		assert.Equal(t, providers.ListingSourceCache, list.Source)
		assert.NotEmpty(t, list.Warning)
		require.Len(t, list.Bookings, 1)
		assert.Equal(t, "local-1", list.Bookings[0].ID)
	})

	t.Run("guest has empty list", func(t *testing.T) {
		list, err := newTestBookingService(new(mocks.TravelAPI), newStubCatalog()).List(context.Background(), NewSession("c1", storage.NewMemoryStore()))
		require.NoError(t, err)
		assert.Empty(t, list.Bookings)
	})
}
