package security

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndParseUserToken(t *testing.T) {
	now := time.Now()
	token, err := SignUserToken("s3cret", 42, time.Hour, now)
	if err != nil {
		t.Fatalf("SignUserToken: %v", err)
	}
	claims, err := ParseUserToken("s3cret", token)
	if err != nil {
		t.Fatalf("ParseUserToken: %v", err)
	}
	if claims.UserID != 42 || claims.Subject != "42" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseUserToken_Rejects(t *testing.T) {
	now := time.Now()
	token, err := SignUserToken("s3cret", 42, time.Hour, now)
	if err != nil {
		t.Fatalf("SignUserToken: %v", err)
	}
	if _, errWrong := ParseUserToken("other", token); !errors.Is(errWrong, ErrInvalidToken) {
		t.Fatalf("expected invalid token for wrong secret, got %v", errWrong)
	}

	expired, err := SignUserToken("s3cret", 42, time.Minute, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("SignUserToken: %v", err)
	}
	if _, errExpired := ParseUserToken("s3cret", expired); !errors.Is(errExpired, ErrInvalidToken) {
		t.Fatalf("expected invalid token for expired token, got %v", errExpired)
	}

	if _, errGarbage := ParseUserToken("s3cret", "not-a-jwt"); !errors.Is(errGarbage, ErrInvalidToken) {
		t.Fatalf("expected invalid token for garbage, got %v", errGarbage)
	}
	if _, errSign := SignUserToken("", 1, time.Hour, now); errSign == nil {
		t.Fatalf("expected error for empty secret")
	}
}
