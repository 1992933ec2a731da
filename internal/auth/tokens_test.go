package auth

import (
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-access-secret", "test-refresh-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestNewTokenServiceRejectsSharedSecret(t *testing.T) {
	if _, err := NewTokenService("same", "same"); err == nil {
		t.Fatal("expected error for identical secrets")
	}
	if _, err := NewTokenService("", "refresh"); err == nil {
		t.Fatal("expected error for empty access secret")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueAccessToken("acc-1", RoleResearcher)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	claims, err := svc.Verify(token, AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "acc-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != RoleResearcher {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
}

func TestVerifyRejectsWrongClass(t *testing.T) {
	svc := newTestTokenService(t)

	access, err := svc.IssueAccessToken("acc-1", RoleGovernment)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := svc.Verify(access, RefreshToken); err == nil {
		t.Fatal("access token must not verify as refresh token")
	}

	refresh, err := svc.IssueRefreshToken("acc-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := svc.Verify(refresh, AccessToken); err == nil {
		t.Fatal("refresh token must not verify as access token")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)
	issued := time.Now()
	svc.WithClock(func() time.Time { return issued })

	token, err := svc.IssueAccessToken("acc-1", RoleResearcher)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	svc.WithClock(func() time.Time { return issued.Add(AccessTokenTTL + time.Minute) })
	if _, err := svc.Verify(token, AccessToken); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService("other-access-secret", "other-refresh-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := other.IssueAccessToken("acc-1", RoleResearcher)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := svc.Verify(token, AccessToken); err == nil {
		t.Fatal("token signed with a different secret must fail")
	}
	if _, err := svc.Verify("not-a-token", AccessToken); err == nil {
		t.Fatal("garbage must fail")
	}
}
