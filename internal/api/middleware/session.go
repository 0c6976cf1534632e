package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/providers"
)

// ClientCookieName identifies a browser's partition of the client store
const ClientCookieName = "ts_client"

const clientCookieMaxAge = 365 * 24 * 60 * 60

// ClientSession restores the caller's session from its partition of store and
// attaches it to the request context. First-time callers get a new partition.
func ClientSession(store providers.StorageProvider, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if c, err := r.Cookie(ClientCookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					clientID = id.String()
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    clientID,
					Path:     "/",
					MaxAge:   clientCookieMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := r.Context()
			sess := services.RestoreSession(ctx, clientID, storage.Scoped(store, clientID))
			next.ServeHTTP(w, r.WithContext(services.WithSession(ctx, sess)))
		})
	}
}
