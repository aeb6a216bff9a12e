package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("not-our-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, ok := ParseClaims(signed)
	if !ok {
		t.Fatal("expected claims from a JWT")
	}
	if claims.Subject != "user-7" {
		t.Errorf("expected subject user-7, got %q", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, claims.ExpiresAt)
	}
	if claims.Expired(time.Now()) {
		t.Error("token should not be expired yet")
	}
	if !claims.Expired(exp.Add(time.Minute)) {
		t.Error("token should be expired after its expiry")
	}
}

func TestParseClaims_Opaque(t *testing.T) {
	for _, tok := range []string{"", "opaque-session-id", "a.b.c"} {
		if _, ok := ParseClaims(tok); ok {
			t.Errorf("expected %q to be rejected", tok)
		}
	}
}

func TestClaims_NoExpiryNeverExpires(t *testing.T) {
	var c TokenClaims
	if c.Expired(time.Now()) {
		t.Error("claims without expiry must not expire")
	}
}
