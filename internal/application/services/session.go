package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// Session is one browser's authentication state. It is created per request
// from the client's partition of the store and travels in the request context.
type Session struct {
	ClientID string

	store providers.StorageProvider
	mu    sync.RWMutex
	user  *entities.User
	token string
}

// NewSession creates an anonymous session over store
func NewSession(clientID string, store providers.StorageProvider) *Session {
	return &Session{ClientID: clientID, store: store}
}

// RestoreSession rebuilds a session from ts_user and ts_token. Both keys must
// be present. A corrupt user record leaves the session anonymous.
func RestoreSession(ctx context.Context, clientID string, store providers.StorageProvider) *Session {
	sess := NewSession(clientID, store)

	rawUser, err := store.Get(ctx, providers.KeyUser)
	if err != nil {
		if !errors.Is(err, providers.ErrKeyNotFound) {
			log.Warn().Err(err).Str("client_id", clientID).Msg("failed to read stored user")
		}
		return sess
	}
	token, err := store.Get(ctx, providers.KeyToken)
	if err != nil || token == "" {
		return sess
	}

	var user entities.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("stored user is corrupt, continuing anonymously")
		return sess
	}
	user.Role = entities.NormalizeRole(string(user.Role))

	sess.user = &user
	sess.token = token
	return sess
}

// User returns a copy of the signed-in user, or nil
func (s *Session) User() *entities.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Email returns the signed-in user's email, or "" for guests
func (s *Session) Email() string {
	if u := s.User(); u != nil {
		return u.Email
	}
	return ""
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// Store is this client's partition of the persistent store
func (s *Session) Store() providers.StorageProvider {
	return s.store
}

// Login normalises the user's role, then remembers and persists the user and token
func (s *Session) Login(ctx context.Context, user entities.User, token string) error {
	user.Role = entities.NormalizeRole(string(user.Role))

	raw, err := json.Marshal(user)
	if err != nil {
		return apperrors.NewStorageError("failed to encode user", err)
	}
	if err := s.store.Set(ctx, providers.KeyUser, string(raw)); err != nil {
		return apperrors.NewStorageError("failed to persist user", err)
	}
	if err := s.store.Set(ctx, providers.KeyToken, token); err != nil {
		return apperrors.NewStorageError("failed to persist token", err)
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout clears memory state and removes the persisted keys
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	return errors.Join(
		s.store.Delete(ctx, providers.KeyUser),
		s.store.Delete(ctx, providers.KeyToken),
	)
}

type sessionContextKey struct{}

// WithSession stores sess in ctx
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request's session, or nil when none was attached
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
