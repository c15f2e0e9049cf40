package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	token, err := manager.Issue("user-1", RoleTrainer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID != "user-1" {
		t.Errorf("want id user-1, got %q", claims.ID)
	}
	if claims.Role != RoleTrainer {
		t.Errorf("want role trainer, got %q", claims.Role)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := manager.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: want ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Issue("user-1", RoleClient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	token, err := manager.Issue("user-1", RoleClient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
