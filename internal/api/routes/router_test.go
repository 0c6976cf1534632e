package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/portal/internal/adapters/cache"
	"github.com/tripsync/portal/internal/adapters/events"
	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/api/handlers"
	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/domain/providers/mocks"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

type testApp struct {
	server *httptest.Server
	api    *mocks.TravelAPI
	store  *storage.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	api := new(mocks.TravelAPI)
	store := storage.NewMemoryStore()
	bus := events.NewMemoryEventBus()

	catalog := cache.NewPackageCache(api, storage.Scoped(store, "shared"), 24*time.Hour, nil)
	bookings := services.NewBookingService(api, catalog, services.NewPaymentService(), nil)

	router := NewRouter(
		handlers.NewAuthHandler(services.NewAuthService(api)),
		handlers.NewCatalogHandler(services.NewCatalogService(catalog, services.NewCarousel(time.Hour))),
		handlers.NewBookingHandler(bookings),
		handlers.NewDashboardHandler(
			services.NewTravelerService(bookings),
			services.NewAgentService(api, bus, 10),
			services.NewAdminService(api, bus),
		),
		store,
		Options{},
	)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return &testApp{server: server, api: api, store: store}
}

// browser is one client with its own cookie jar that does not follow redirects
func (a *testApp) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) do(t *testing.T, c *http.Client, method, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func futureDate() string {
	return time.Now().AddDate(0, 1, 0).Format(entities.DateLayout)
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, app.browser(t), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_PopularStrip(t *testing.T) {
	app := newTestApp(t)
	popular := []entities.TravelPackage{{ID: "p1", Title: "Goa Trip"}, {ID: "p2", Title: "Manali Snow"}}
	app.api.On("ListPackages", mock.Anything, providers.PackageQuery{Limit: 6}).Return(popular, nil)

	var listing providers.PackageListing
	resp := app.do(t, app.browser(t), http.MethodGet, "/popular", nil, &listing)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, providers.ListingSourceRemote, listing.Source)
	assert.Len(t, listing.Packages, 2)
}

func TestRouter_GuestBooksDemoPackage(t *testing.T) {
	app := newTestApp(t)
	app.api.On("GetPackage", mock.Anything, "pkg_basic").Return(nil, apperrors.NewExternalError("down", nil))
	browser := app.browser(t)

	var res services.BookingResult
	resp := app.do(t, browser, http.MethodPost, "/booking/pkg_basic", map[string]interface{}{
		"date":    futureDate(),
		"persons": 2,
	}, &res)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, services.BookingGuest, res.Outcome)
	assert.Equal(t, float64(9998), res.Booking.Total)

	var clientID string
	for _, c := range resp.Cookies() {
		if c.Name == "ts_client" {
			clientID = c.Value
		}
	}
	require.NotEmpty(t, clientID)

	var saved []entities.Booking
	found, err := storage.GetJSON(context.Background(), storage.Scoped(app.store, clientID), "ts_bookings_guest", &saved)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, saved, 1)
	assert.Equal(t, float64(9998), saved[0].Total)
}

func TestRouter_GuardsDashboards(t *testing.T) {
	app := newTestApp(t)
	app.api.On("Login", mock.Anything, "asha@x.com", "pw").Return(&providers.LoginResult{AccessToken: "t-asha", Role: "user", Email: "asha@x.com"}, nil)

	anonymous := app.browser(t)
	resp := app.do(t, anonymous, http.MethodGet, "/admin/dashboard", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	traveler := app.browser(t)
	var login services.LoginOutcome
	resp = app.do(t, traveler, http.MethodPost, "/login", map[string]string{"email": "asha@x.com", "password": "pw"}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", login.Redirect)

	for _, path := range []string{"/admin/dashboard", "/dashboard/agent", "/travel_partner/dashboard"} {
		resp = app.do(t, traveler, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/", resp.Header.Get("Location"), path)
	}

	app.api.On("ListMyBookings", mock.Anything, "t-asha").Return([]entities.Booking{}, nil)
	var board services.TravelerDashboard
	resp = app.do(t, traveler, http.MethodGet, "/dashboard/user", nil, &board)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, board.Offers, 3)

	resp = app.do(t, traveler, http.MethodPost, "/logout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.do(t, traveler, http.MethodGet, "/user/dashboard", nil, nil)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRouter_PackageLifecycle(t *testing.T) {
	app := newTestApp(t)
	goa := entities.TravelPackage{ID: "p1", Title: "Goa Trip", Price: 5000, Days: 3, Location: "Goa", Category: "beach", CreatedBy: "agent@x.com"}
	pending := goa
	pending.Status = entities.PackageStatusPending
	approved := goa
	approved.Status = entities.PackageStatusApproved

	app.api.On("Login", mock.Anything, "agent@x.com", "pw").Return(&providers.LoginResult{AccessToken: "t-agent", Role: "agent", Email: "agent@x.com"}, nil)
	app.api.On("Login", mock.Anything, "admin@x.com", "pw").Return(&providers.LoginResult{AccessToken: "t-admin", Role: "admin", Email: "admin@x.com"}, nil)
	app.api.On("CreatePackage", mock.Anything, "t-agent", mock.Anything).Return(&pending, nil)
	app.api.On("ListPendingPackages", mock.Anything, "t-admin").Return([]entities.TravelPackage{pending}, nil)
	app.api.On("ListAllPackages", mock.Anything, "t-admin").Return([]entities.TravelPackage{pending}, nil)
	app.api.On("ApprovePackage", mock.Anything, "t-admin", "p1").Return(&approved, nil)
	app.api.On("UpdatePackage", mock.Anything, "t-agent", "p1", mock.MatchedBy(func(p entities.TravelPackage) bool {
		return p.Title == "Goa Trip" && p.Days == 3
	})).Return(&pending, nil)
	app.api.On("ListPackages", mock.Anything, providers.PackageQuery{}).Return([]entities.TravelPackage{approved}, nil)

	agent := app.browser(t)
	var login services.LoginOutcome
	app.do(t, agent, http.MethodPost, "/login", map[string]string{"email": "agent@x.com", "password": "pw"}, &login)
	assert.Equal(t, "/agent/dashboard", login.Redirect)

	var submitted map[string]interface{}
	resp := app.do(t, agent, http.MethodPost, "/agent/packages", map[string]interface{}{
		"title":              "Goa Trip",
		"price":              5000,
		"duration":           3,
		"travel_destination": "Goa",
		"category":           "beach",
	}, &submitted)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Package submitted for admin approval!", submitted["message"])

	var edited map[string]interface{}
	resp = app.do(t, agent, http.MethodPut, "/agent/packages/p1", map[string]interface{}{
		"title":              "Goa Trip",
		"price":              5000,
		"duration":           3,
		"travel_destination": "Goa",
		"category":           "beach",
	}, &edited)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Package updated successfully", edited["message"])

	admin := app.browser(t)
	app.do(t, admin, http.MethodPost, "/login", map[string]string{"email": "admin@x.com", "password": "pw"}, &login)
	assert.Equal(t, "/admin/dashboard", login.Redirect)

	var board services.AdminBoard
	resp = app.do(t, admin, http.MethodGet, "/admin/dashboard", nil, &board)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, board.Pending, 1)

	var review services.ReviewResult
	resp = app.do(t, admin, http.MethodPost, "/admin/packages/p1/approve", nil, &review)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, review.Board.Pending)
	require.Len(t, review.Board.Approved, 1)
	assert.Equal(t, "Goa Trip", review.Board.Approved[0].Title)

	var home services.CatalogView
	resp = app.do(t, app.browser(t), http.MethodGet, "/?q=goa", nil, &home)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, home.Packages, 1)
	assert.Equal(t, "Goa Trip", home.Packages[0].Title)
}
