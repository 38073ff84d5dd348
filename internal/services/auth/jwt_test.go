package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, expires, err := m.GenerateAccessToken(42, "sid-1", enums.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("unexpected expiry: %s", expires)
	}

	claims, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.SID != "sid-1" || claims.Role != enums.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base }

	token, _, err := m.GenerateAccessToken(1, "sid", enums.RoleUser)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	other := NewJWTManager("other-secret", time.Minute)
	foreign, _, err := other.GenerateAccessToken(1, "sid", enums.RoleUser)
	if err != nil {
		t.Fatalf("generate foreign: %v", err)
	}
	if _, err := NewJWTManager("secret", time.Minute).ParseAccessToken(foreign); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected foreign token to be rejected, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Fatalf("check valid password: %v", err)
	}
	if err := CheckPassword(hash, "hunter23"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestJWTRejectsTokenWithoutAudience(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.ParseAccessToken(signed); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected token without audience to be rejected, got %v", err)
	}
}

func TestRefreshTokensAreUniqueAndHashed(t *testing.T) {
	first, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("new refresh token: %v", err)
	}
	second, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("new refresh token: %v", err)
	}
	if first == second {
		t.Fatalf("refresh tokens must differ")
	}
	if HashToken(first) == first || HashToken(first) != HashToken(first) || len(HashToken(first)) != 64 {
		t.Fatalf("unexpected hash for %q: %q", first, HashToken(first))
	}
}
