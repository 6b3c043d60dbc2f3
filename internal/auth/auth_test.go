package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "alice", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "alice", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := ParseToken("other", token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := ParseToken("secret", token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2longenough")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	if !CheckPassword(hash, "hunter2longenough") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected mismatch to fail")
	}
}
