package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndParseToken(t *testing.T) {
	userID := uuid.New()
	token, errGen := GenerateToken("test-secret", userID, "user@example.com", time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}

	claims, errParse := ParseToken("test-secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: got %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("email mismatch: got %s", claims.Email)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, errGen := GenerateToken("secret-a", uuid.New(), "user@example.com", time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}
	if _, errParse := ParseToken("secret-b", token); errParse == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, errGen := GenerateToken("test-secret", uuid.New(), "user@example.com", -time.Minute)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}
	if _, errParse := ParseToken("test-secret", token); errParse != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestPasswordResetTokenRoundTrip(t *testing.T) {
	token, errGen := GeneratePasswordResetToken("test-secret", "reset@example.com", time.Hour)
	if errGen != nil {
		t.Fatalf("generate reset token: %v", errGen)
	}
	email, errVerify := VerifyPasswordResetToken("test-secret", token)
	if errVerify != nil {
		t.Fatalf("verify reset token: %v", errVerify)
	}
	if email != "reset@example.com" {
		t.Fatalf("email mismatch: got %s", email)
	}
}

func TestPasswordResetTokenRejectsSessionToken(t *testing.T) {
	token, errGen := GenerateToken("test-secret", uuid.New(), "user@example.com", time.Hour)
	if errGen != nil {
		t.Fatalf("generate token: %v", errGen)
	}
	if _, errVerify := VerifyPasswordResetToken("test-secret", token); errVerify == nil {
		t.Fatal("expected session token to be rejected as reset token")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, errHash := HashPassword("s3cret-password")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if !CheckPassword(hash, "s3cret-password") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("expected wrong password to fail")
	}
}
