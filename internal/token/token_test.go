package token

import (
	"errors"
	"testing"
	"time"
)

func testClaims() Claims {
	return Claims{
		UserID:         42,
		Username:       "ada",
		Admin:          true,
		Email:          "ada@example.com",
		ProfilePicture: "https://cdn.example.com/avatars/ada.png",
	}
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	issuer := NewHMACIssuer("test-secret")

	signed, err := issuer.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims != testClaims() {
		t.Fatalf("claims mismatch: got %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewHMACIssuer("secret-a").Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewHMACIssuer("secret-b").Verify(signed)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	issuer := NewHMACIssuer("test-secret")

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(tokenString); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tokenString, err)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewHMACIssuer("test-secret")

	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issuedAt }
	signed, err := issuer.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(signed); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenValidInsideWindow(t *testing.T) {
	issuer := NewHMACIssuer("test-secret")

	issuedAt := time.Now().Add(-TTL + 5*time.Minute)
	issuer.now = func() time.Time { return issuedAt }
	signed, err := issuer.Issue(testClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(signed); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}
}
