package jwttoken

import (
	"testing"
	"time"

	dErrors "stemma/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "stemma")

	token, err := svc.GenerateToken("researcher-1", RoleResearcher, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "researcher-1" {
		t.Fatalf("expected user id researcher-1, got %q", claims.UserID)
	}
	if claims.Role != RoleResearcher {
		t.Fatalf("expected role researcher, got %q", claims.Role)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService("test-signing-key", "stemma")

	token, err := svc.GenerateToken("viewer-1", RoleViewer, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = svc.ValidateToken(token)
	if err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	issuer := NewService("key-one", "stemma")
	verifier := NewService("key-two", "stemma")

	token, err := issuer.GenerateToken("admin-1", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected token signed with a different key to be rejected")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewService("test-signing-key", "stemma")
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
