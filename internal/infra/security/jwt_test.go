package security

import (
	"errors"
	"testing"
	"time"

	"github.com/arklim/capability-identity/internal/core/domain"
)

func TestSignParseRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec("secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	token, err := codec.Sign("alice", domain.RoleAdmin, []domain.PermissionCode{1, 3})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Role != "Admin" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if !domain.SamePermissions(claims.PermissionCodes(), []domain.PermissionCode{1, 3}) {
		t.Fatalf("unexpected permissions %v", claims.Permissions)
	}

	expiry := claims.ExpiresAt.Time
	if !expiry.Equal(issuedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour after issue, got %v", expiry)
	}
}

func TestSignRequiresSecret(t *testing.T) {
	codec := NewTokenCodec("", time.Hour)

	if _, err := codec.Sign("alice", domain.RoleClient, nil); !errors.Is(err, ErrTokenCreation) {
		t.Fatalf("expected ErrTokenCreation, got %v", err)
	}
}

func TestParseExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	signer := NewTokenCodec("secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	token, err := signer.Sign("alice", domain.RoleClient, nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier := NewTokenCodec("secret", time.Hour).
		WithClock(func() time.Time { return issuedAt.Add(61 * time.Minute) })

	if _, err := verifier.Parse(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseRejectsWrongSecretAndGarbage(t *testing.T) {
	signer := NewTokenCodec("secret", time.Hour)
	token, err := signer.Sign("alice", domain.RoleClient, nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier := NewTokenCodec("other-secret", time.Hour)
	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	if _, err := signer.Parse("garbage.token.value"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
