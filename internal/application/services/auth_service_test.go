package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/domain/providers/mocks"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthService_LoginUsesResponseFields(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("Login", mock.Anything, "agent@x.com", "pw").Return(&providers.LoginResult{
		AccessToken: "opaque",
		Role:        "agent",
		Name:        "Ravi",
		Email:       "agent@x.com",
	}, nil)

	store := storage.NewMemoryStore()
	sess := NewSession("c1", store)
	out, err := NewAuthService(api).Login(context.Background(), sess, "agent@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, entities.RoleTravelPartner, out.User.Role)
	assert.Equal(t, "/agent/dashboard", out.Redirect)
	assert.Equal(t, "opaque", sess.Token())

	token, err := store.Get(context.Background(), providers.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "opaque", token)
}

func TestAuthService_LoginFallsBackToClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"name": "Root", "email": "root@x.com", "role": "admin"})
	api := new(mocks.TravelAPI)
	api.On("Login", mock.Anything, "root@x.com", "pw").Return(&providers.LoginResult{AccessToken: token}, nil)

	out, err := NewAuthService(api).Login(context.Background(), NewSession("c1", storage.NewMemoryStore()), "root@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, entities.User{Name: "Root", Email: "root@x.com", Role: entities.RoleAdmin}, out.User)
	assert.Equal(t, "/admin/dashboard", out.Redirect)
}

func TestAuthService_LoginFallsBackToEmail(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("Login", mock.Anything, "asha@x.com", "pw").Return(&providers.LoginResult{AccessToken: "not-a-jwt", Role: "user"}, nil)

	out, err := NewAuthService(api).Login(context.Background(), NewSession("c1", storage.NewMemoryStore()), "asha@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "asha", out.User.Name)
	assert.Equal(t, entities.RoleTraveler, out.User.Role)
	assert.Equal(t, "/", out.Redirect)
}

func TestAuthService_LoginWithoutToken(t *testing.T) {
	tests := []struct {
		name   string
		result *providers.LoginResult
		want   string
	}{
		{name: "detail", result: &providers.LoginResult{Detail: "Invalid credentials"}, want: "Invalid credentials"},
		{name: "message", result: &providers.LoginResult{Message: "Account locked"}, want: "Account locked"},
		{name: "nothing", result: &providers.LoginResult{}, want: "Invalid server response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.TravelAPI)
			api.On("Login", mock.Anything, "a@x.com", "pw").Return(tt.result, nil)
			sess := NewSession("c1", storage.NewMemoryStore())

			_, err := NewAuthService(api).Login(context.Background(), sess, "a@x.com", "pw")
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
			assert.Equal(t, tt.want, err.(*apperrors.AppError).Message)
			assert.False(t, sess.IsAuthenticated())
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	api := new(mocks.TravelAPI)
	api.On("Register", mock.Anything, providers.Registration{
		Name: "Asha", Email: "asha@x.com", Password: "pw", Role: entities.RoleTraveler,
	}).Return("", nil)
	api.On("Register", mock.Anything, providers.Registration{
		Name: "Ravi", Email: "ravi@x.com", Password: "pw", Role: entities.RoleTravelPartner,
	}).Return("Welcome aboard", nil)

	svc := NewAuthService(api)

	msg, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", msg)

	msg, err = svc.Register(context.Background(), RegisterInput{Name: "Ravi", Email: "ravi@x.com", Password: "pw", Role: "agent"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard", msg)

	_, err = svc.Register(context.Background(), RegisterInput{Name: "X", Email: "no-at-sign", Password: "pw"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
