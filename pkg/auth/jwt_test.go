package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tunelab-ai/studio/pkg/common/models"
)

func testUser() models.User {
	return models.User{
		ID:          uuid.New(),
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        "researcher",
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	manager, err := NewJWTManager("test-secret-at-least-16", "tunelab-studio", "studio-api", time.Hour)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	user := testUser()
	token, err := manager.IssueToken(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := manager.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("user id = %v", claims.UserID)
	}
	identity := claims.Identity()
	if identity.Email != "alice@example.com" || identity.Role != "researcher" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	manager, _ := NewJWTManager("test-secret-at-least-16", "tunelab-studio", "studio-api", time.Hour)
	token, err := manager.IssueToken(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := manager.ValidateToken(context.Background(), tampered); err == nil {
		t.Fatal("tampered token accepted")
	}

	other, _ := NewJWTManager("another-secret-16-chars", "tunelab-studio", "studio-api", time.Hour)
	if _, err := other.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("token signed with a different key accepted")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager, _ := NewJWTManager("test-secret-at-least-16", "tunelab-studio", "studio-api", time.Minute)
	manager.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := manager.IssueToken(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.nowFunc = time.Now
	if _, err := manager.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	issuerSide, _ := NewJWTManager("test-secret-at-least-16", "tunelab-studio", "other-api", time.Hour)
	token, err := issuerSide.IssueToken(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	validator, _ := NewJWTManager("test-secret-at-least-16", "tunelab-studio", "studio-api", time.Hour)
	if _, err := validator.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("token for another audience accepted")
	}
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", "iss", "aud", time.Hour); err == nil {
		t.Fatal("short secret accepted")
	}
}
