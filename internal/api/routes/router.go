package routes

import (
	"net/http"

	"github.com/tripsync/portal/internal/api/handlers"
	"github.com/tripsync/portal/internal/api/middleware"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler      *handlers.AuthHandler
	catalogHandler   *handlers.CatalogHandler
	bookingHandler   *handlers.BookingHandler
	dashboardHandler *handlers.DashboardHandler

	store          providers.StorageProvider
	allowedOrigins []string
	secureCookies  bool
	metrics        *observability.Metrics
}

// Options configure the middleware chain
type Options struct {
	AllowedOrigins []string
	SecureCookies  bool
	Metrics        *observability.Metrics
}

// NewRouter creates a new router. store is the shared client store that
// each browser gets a partition of.
func NewRouter(
	authHandler *handlers.AuthHandler,
	catalogHandler *handlers.CatalogHandler,
	bookingHandler *handlers.BookingHandler,
	dashboardHandler *handlers.DashboardHandler,
	store providers.StorageProvider,
	opts Options,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		authHandler:      authHandler,
		catalogHandler:   catalogHandler,
		bookingHandler:   bookingHandler,
		dashboardHandler: dashboardHandler,
		store:            store,
		allowedOrigins:   opts.AllowedOrigins,
		secureCookies:    opts.SecureCookies,
		metrics:          opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Public catalog and booking
	r.mux.HandleFunc("GET /{$}", r.catalogHandler.Home)
	r.mux.HandleFunc("GET /popular", r.catalogHandler.Popular)
	r.mux.HandleFunc("GET /package/{id}", r.catalogHandler.GetPackage)
	r.mux.HandleFunc("POST /booking/{id}", r.bookingHandler.Book)
	r.mux.HandleFunc("POST /checkout/{id}", r.bookingHandler.Checkout)

	// Auth
	r.mux.HandleFunc("POST /login", r.authHandler.Login)
	r.mux.HandleFunc("POST /register", r.authHandler.Register)
	r.mux.HandleFunc("POST /logout", r.authHandler.Logout)
	r.mux.HandleFunc("GET /session", r.authHandler.Session)

	// Traveler
	traveler := middleware.RequireRole(entities.RoleTraveler)
	for _, path := range []string{"/user/dashboard", "/dashboard/user"} {
		r.mux.Handle("GET "+path, traveler(http.HandlerFunc(r.dashboardHandler.Traveler)))
	}
	r.mux.Handle("DELETE /user/bookings/{id}", traveler(http.HandlerFunc(r.bookingHandler.Cancel)))

	// Travel partner
	agent := middleware.RequireRole(entities.RoleTravelPartner)
	for _, path := range []string{"/agent/dashboard", "/dashboard/agent", "/travel_partner/dashboard", "/dashboard/travel_partner"} {
		r.mux.Handle("GET "+path, agent(http.HandlerFunc(r.dashboardHandler.Agent)))
	}
	r.mux.Handle("POST /agent/packages", agent(http.HandlerFunc(r.dashboardHandler.SubmitPackage)))
	r.mux.Handle("PUT /agent/packages/{id}", agent(http.HandlerFunc(r.dashboardHandler.UpdatePackage)))
	r.mux.Handle("DELETE /agent/packages/{id}", agent(http.HandlerFunc(r.dashboardHandler.DeletePackage)))

	// Admin
	admin := middleware.RequireRole(entities.RoleAdmin)
	for _, path := range []string{"/admin/dashboard", "/dashboard/admin"} {
		r.mux.Handle("GET "+path, admin(http.HandlerFunc(r.dashboardHandler.Admin)))
	}
	r.mux.Handle("POST /admin/packages/{id}/approve", admin(http.HandlerFunc(r.dashboardHandler.Approve)))
	r.mux.Handle("POST /admin/packages/{id}/reject", admin(http.HandlerFunc(r.dashboardHandler.Reject)))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.ClientSession(r.store, r.secureCookies)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.mux)(handler)

	// CORS wraps everything so preflights never touch the store
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
