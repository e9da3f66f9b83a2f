package session

import (
	"context"
	"testing"
	"time"
)

func TestVerify_RoundTripWithAudience(t *testing.T) {
	now := time.Unix(1700000000, 0)
	secret := "test_secret"

	tok, err := Sign(Session{
		UserID:          "user-42",
		Role:            RoleVendor,
		VendorProfileID: "vp-7",
		ExpiresAt:       now.Add(10 * time.Minute),
	}, secret, "dashboard", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := Verify(tok, secret, "dashboard", now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UserID != "user-42" || got.Role != RoleVendor || got.VendorProfileID != "vp-7" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Token != tok {
		t.Fatalf("expected raw token retained for forwarding")
	}
}

func TestVerify_RejectsExpiredAndWrongAudience(t *testing.T) {
	now := time.Unix(1700000000, 0)
	secret := "test_secret"

	expired, _ := Sign(Session{UserID: "u", Role: RoleClient, ExpiresAt: now.Add(-time.Second)}, secret, "", now.Add(-time.Hour))
	if _, err := Verify(expired, secret, "", now); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	wrongAud, _ := Sign(Session{UserID: "u", Role: RoleClient, ExpiresAt: now.Add(time.Hour)}, secret, "other", now)
	if _, err := Verify(wrongAud, secret, "dashboard", now); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}

func TestVerify_RejectsUnknownRole(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok, _ := Sign(Session{UserID: "u", Role: Role("admin"), ExpiresAt: now.Add(time.Hour)}, "s", "", now)
	if _, err := Verify(tok, "s", "", now); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil session on empty context")
	}
	s := &Session{UserID: "u", Role: RoleClient}
	if got := FromContext(WithSession(context.Background(), s)); got != s {
		t.Fatalf("expected session back from context")
	}
}
