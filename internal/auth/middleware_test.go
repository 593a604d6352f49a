package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signToken(t *testing.T, secret []byte, subject, role string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseToken(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()

	token := signToken(t, secret, userID.String(), "doctor", time.Now().Add(time.Hour))
	identity, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != userID || identity.Role != RoleDoctor {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()

	cases := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, []byte("other"), userID.String(), "patient", time.Now().Add(time.Hour))},
		{"expired", signToken(t, secret, userID.String(), "patient", time.Now().Add(-time.Hour))},
		{"bad subject", signToken(t, secret, "not-a-uuid", "patient", time.Now().Add(time.Hour))},
		{"garbage", "not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseToken(tc.token, secret); err != ErrInvalidToken {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestParseToken_UnknownRole(t *testing.T) {
	secret := []byte("test-secret")
	userID := uuid.New()

	token := signToken(t, secret, userID.String(), "superuser", time.Now().Add(time.Hour))
	identity, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Неизвестная роль не превращается в привилегии.
	if identity.Role != RoleUnknown || identity.IsAdmin() {
		t.Fatalf("unexpected role mapping: %+v", identity)
	}
}
