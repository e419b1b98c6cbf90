package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), "inkwell", "inkwell-api")

	token, err := iss.IssueAccess("u_1", "Ada", "editor", "sess_1", time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := iss.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.Subject != "u_1" || claims.Name != "Ada" || claims.Role != "editor" || claims.ID != "sess_1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenCarriesVersion(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), "inkwell", "inkwell-api")

	token, err := iss.IssueRefresh("u_1", 7, time.Minute)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	claims, err := iss.ParseRefresh(token)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if claims.Subject != "u_1" || claims.Ver != 7 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	iss := NewIssuer([]byte("secret-a"), "inkwell", "inkwell-api")
	other := NewIssuer([]byte("secret-b"), "inkwell", "inkwell-api")

	token, err := iss.IssueAccess("u_1", "Ada", "editor", "sess_1", time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := other.ParseAccess(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), "inkwell", "inkwell-api")

	token, err := iss.IssueAccess("u_1", "Ada", "editor", "sess_1", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := iss.ParseAccess(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), "inkwell", "other-api")
	api := NewIssuer([]byte("test-secret"), "inkwell", "inkwell-api")

	token, err := iss.IssueRefresh("u_1", 1, time.Minute)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, err := api.ParseRefresh(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHashTokenStable(t *testing.T) {
	a := HashToken("abc")
	b := HashToken("abc")
	if a != b {
		t.Fatal("hash not deterministic")
	}
	if a == HashToken("abd") {
		t.Fatal("distinct inputs collided")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %d chars", len(a))
	}
}
