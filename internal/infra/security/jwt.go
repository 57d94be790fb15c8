package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arklim/capability-identity/internal/core/domain"
)

var (
	// ErrTokenCreation indicates the signer could not produce a token.
	ErrTokenCreation = errors.New("access token creation failed")
	// ErrInvalidToken indicates the token failed signature or structural
	// validation.
	ErrInvalidToken = errors.New("access token is invalid")
	// ErrExpiredToken indicates the token was well formed but past its
	// expiry.
	ErrExpiredToken = errors.New("access token is expired")
)

// AccessTokenClaims is the payload embedded in every issued access token.
// Role and permissions are a snapshot of the catalog at issue time; they
// are never refreshed for the lifetime of the token.
type AccessTokenClaims struct {
	Role        string   `json:"role"`
	Permissions []uint32 `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenCodec signs and validates HS256 access tokens with a shared
// secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a codec. TTL must be positive; the secret must
// be non-empty for signing to succeed.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

// TTL reports the configured access token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Sign issues an access token for the subject carrying the role and
// permission snapshot.
func (c *TokenCodec) Sign(subject string, role domain.Role, permissions []domain.PermissionCode) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret is empty", ErrTokenCreation)
	}

	now := c.now().UTC()
	codes := make([]uint32, len(permissions))
	for i, p := range permissions {
		codes[i] = uint32(p)
	}

	claims := AccessTokenClaims{
		Role:        role.String(),
		Permissions: codes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenCreation, err)
	}

	return signed, nil
}

// Parse validates a token and returns its claims. Any validation failure
// other than expiry maps to ErrInvalidToken; the caller never learns why
// a token was rejected beyond expired or invalid.
func (c *TokenCodec) Parse(raw string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// PermissionCodes converts the claim snapshot back to domain codes.
func (c *AccessTokenClaims) PermissionCodes() []domain.PermissionCode {
	codes := make([]domain.PermissionCode, len(c.Permissions))
	for i, p := range c.Permissions {
		codes[i] = domain.PermissionCode(p)
	}
	return codes
}
