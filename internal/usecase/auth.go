package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/infra/security"
	"github.com/arklim/capability-identity/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided username or password
	// are incorrect. Lookup failure and password mismatch are
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAccessToken indicates the presented access token is
	// malformed or failed signature validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the presented access token has
	// expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// CredentialReader is the slice of the credential repository the auth
// service needs.
type CredentialReader interface {
	GetByUsername(ctx context.Context, username string) (*domain.Credential, error)
}

// AuthService authenticates credentials and issues capability-scoped
// access tokens.
type AuthService struct {
	credentials CredentialReader
	codec       *security.TokenCodec
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(credentials CredentialReader, codec *security.TokenCodec) *AuthService {
	return &AuthService{credentials: credentials, codec: codec}
}

// Authenticate verifies the username and password and returns a signed
// access token embedding the credential's role and permission snapshot.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, *domain.Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return "", nil, fmt.Errorf("password is required")
	}

	credential, err := s.credentials.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup credential: %w", err)
	}

	ok, err := security.VerifyPassword(password, credential.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.codec.Sign(credential.Username, credential.Role, credential.Permissions)
	if err != nil {
		return "", nil, fmt.Errorf("issue access token: %w", err)
	}

	sanitized := *credential
	sanitized.PasswordHash = ""

	return token, &sanitized, nil
}

// ParseAccessToken validates a raw token and returns its claims. Expiry
// maps to ErrExpiredAccessToken; every other failure maps to
// ErrInvalidAccessToken.
func (s *AuthService) ParseAccessToken(raw string) (*security.AccessTokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidAccessToken
	}

	claims, err := s.codec.Parse(raw)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}
