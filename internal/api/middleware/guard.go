package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/entities"
)

// RequireRole only lets through sessions whose user holds role. Anonymous
// callers are sent to the login page and everyone else to the home page.
// An empty role only requires a signed-in user.
func RequireRole(role entities.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var user *entities.User
			if sess := services.SessionFromContext(r.Context()); sess != nil {
				user = sess.User()
			}

			decision := entities.Authorize(role, user)
			if !decision.Allow {
				log.Debug().
					Str("path", r.URL.Path).
					Str("required_role", string(role)).
					Str("redirect", decision.Redirect).
					Msg("route guard redirect")
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
