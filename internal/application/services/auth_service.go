package services

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/domain/entities"
	"github.com/tripsync/portal/internal/domain/providers"
	apperrors "github.com/tripsync/portal/pkg/errors"
)

// AuthService handles sign-up and sign-in against the remote service
type AuthService struct {
	api providers.TravelAPI
}

// NewAuthService creates a new auth service
func NewAuthService(api providers.TravelAPI) *AuthService {
	return &AuthService{api: api}
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginOutcome is the signed-in user and where to send them
type LoginOutcome struct {
	User     entities.User `json:"user"`
	Redirect string        `json:"redirect"`
}

// Register validates the form, normalises the role and creates the account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return "", apperrors.NewValidationError("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return "", apperrors.NewValidationError("email address is invalid")
	}

	role := entities.NormalizeRole(strings.TrimSpace(in.Role))
	if role == "" {
		role = entities.RoleTraveler
	}

	msg, err := s.api.Register(ctx, providers.Registration{
		Name:     name,
		Email:    email,
		Password: in.Password,
		Role:     role,
	})
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "User registered successfully"
	}
	return msg, nil
}

// Login authenticates, fills the user from the response (or the token's claims),
// signs sess in and returns the role's landing path.
func (s *AuthService) Login(ctx context.Context, sess *Session, email, password string) (*LoginOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		detail := res.Detail
		if detail == "" {
			detail = res.Message
		}
		if detail == "" {
			detail = "Invalid server response"
		}
		return nil, apperrors.NewUnauthorizedError(detail)
	}

	claims := tokenClaims(res.AccessToken)
	user := entities.User{
		Name:  firstNonEmpty(res.Name, claims["name"], entities.NameFromEmail(email)),
		Email: firstNonEmpty(res.Email, claims["email"], email),
		Role:  entities.NormalizeRole(firstNonEmpty(res.Role, claims["role"])),
	}

	if err := sess.Login(ctx, user, res.AccessToken); err != nil {
		return nil, err
	}

	log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("user signed in")
	return &LoginOutcome{User: *sess.User(), Redirect: user.Role.LandingPath()}, nil
}

// tokenClaims reads string claims without verifying the signature.
// They only fill display fields.
func tokenClaims(token string) map[string]string {
	out := map[string]string{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return out
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return out
	}
	for _, key := range []string{"name", "email", "role"} {
		if v, ok := claims[key].(string); ok {
			out[key] = v
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
