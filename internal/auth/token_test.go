package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/domain"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewTokenService_RejectsShortKey(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("expected error for short signing key")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testKey)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	userID := uuid.New()
	token, expiresAt, err := svc.GenerateAccessToken(userID, "Alice W")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("token already expired")
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("userID = %v, want %v", claims.UserID, userID)
	}
	if claims.DisplayName != "Alice W" {
		t.Errorf("displayName = %q, want %q", claims.DisplayName, "Alice W")
	}
}

func TestValidateAccessToken_WrongKey(t *testing.T) {
	svc1, _ := NewTokenService(testKey)
	svc2, _ := NewTokenService(strings.Repeat("x", 32))

	token, _, err := svc1.GenerateAccessToken(uuid.New(), "Bob")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := svc2.ValidateAccessToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc, _ := NewTokenService(testKey)

	if _, err := svc.ValidateAccessToken("not.a.token"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}
