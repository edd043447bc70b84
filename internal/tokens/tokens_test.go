package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/banglalekha/go-services/internal/models"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	keys, err := GenerateKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	return NewEngine(keys, 15*time.Minute, 15*24*time.Hour)
}

func testUser() *models.User {
	name := "rahim"
	return &models.User{
		ID:              "user-123",
		Email:           "rahim@example.com",
		Username:        &name,
		Role:            models.RoleUser,
		IsActive:        true,
		IsEmailVerified: true,
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	e := testEngine(t)
	tok, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	claims, err := e.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if claims.UserID != "user-123" || claims.Email != "rahim@example.com" {
		t.Fatalf("identity not preserved: %+v", claims)
	}
	if claims.Role != models.RoleUser || !claims.IsActive || !claims.IsEmailVerified {
		t.Fatalf("flags not preserved: %+v", claims)
	}
	if claims.Type != KindAccess {
		t.Fatalf("unexpected type: %q", claims.Type)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("iat/exp not set")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	e := testEngine(t)
	tok, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	// advance the clock past exp
	e.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	_, err = e.Verify(tok)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	e := testEngine(t)
	tok, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	// flip one byte of the payload segment
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	payload := []byte(parts[1])
	if payload[10] == 'A' {
		payload[10] = 'B'
	} else {
		payload[10] = 'A'
	}
	parts[1] = string(payload)
	tampered := strings.Join(parts, ".")

	_, err = e.Verify(tampered)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Fatalf("tampering must never surface as expiry")
	}
}

func TestVerify_WrongKey(t *testing.T) {
	e1 := testEngine(t)
	e2 := testEngine(t)
	tok, err := e1.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := e2.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken with wrong key, got %v", err)
	}
}

func TestVerify_TypeEnforcement(t *testing.T) {
	e := testEngine(t)
	refresh, err := e.Issue(IdentityClaims(testUser()), KindRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := e.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must be rejected on access check, got %v", err)
	}
	access, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := e.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must be rejected on refresh check, got %v", err)
	}
}

func TestRefreshAccessToken_ValidRefresh(t *testing.T) {
	e := testEngine(t)
	pair, err := e.IssuePair(IdentityClaims(testUser()))
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	// make sure the new pair carries a later iat
	e.now = func() time.Time { return time.Now().Add(2 * time.Second) }

	fresh, err := e.RefreshAccessToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshAccessToken error: %v", err)
	}
	old, err := e.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("old refresh should still verify: %v", err)
	}
	claims, err := e.VerifyAccess(fresh.AccessToken)
	if err != nil {
		t.Fatalf("new access should verify: %v", err)
	}
	if claims.UserID != old.UserID || claims.Email != old.Email || claims.Role != old.Role {
		t.Fatalf("identity not preserved across refresh")
	}
	if !claims.IssuedAt.After(old.IssuedAt.Time) {
		t.Fatalf("new pair should carry fresh iat")
	}
	if _, err := e.VerifyRefresh(fresh.RefreshToken); err != nil {
		t.Fatalf("new refresh should verify: %v", err)
	}
}

func TestRefreshAccessToken_ExpiredRefresh(t *testing.T) {
	e := testEngine(t)
	pair, err := e.IssuePair(IdentityClaims(testUser()))
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	e.now = func() time.Time { return time.Now().Add(16 * 24 * time.Hour) }
	_, err = e.RefreshAccessToken(pair.RefreshToken)
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("refresh expiry should still match ErrTokenExpired")
	}
}

func TestRefreshAccessToken_AccessTokenRejected(t *testing.T) {
	e := testEngine(t)
	access, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := e.RefreshAccessToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not drive a refresh, got %v", err)
	}
}

func TestDecode_NoTrust(t *testing.T) {
	e := testEngine(t)
	tok, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	claims := e.Decode(tok)
	if claims == nil || claims.UserID != "user-123" {
		t.Fatalf("decode should parse valid payloads")
	}
	if e.Decode("not.a.jwt") != nil {
		t.Fatalf("decode of garbage should return nil")
	}
}

func TestIsExpired(t *testing.T) {
	e := testEngine(t)
	tok, err := e.Issue(IdentityClaims(testUser()), KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if e.IsExpired(tok) {
		t.Fatalf("fresh token should not be expired")
	}
	e.now = func() time.Time { return time.Now().Add(time.Hour) }
	if !e.IsExpired(tok) {
		t.Fatalf("token should report expired after exp")
	}
	if !e.IsExpired("garbage") {
		t.Fatalf("unparseable token counts as expired")
	}
}

func TestKeyPair_EncryptedPEMRoundTrip(t *testing.T) {
	keys, err := GenerateKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	privPEM, err := keys.EncodePrivatePEM("top secret")
	if err != nil {
		t.Fatalf("EncodePrivatePEM error: %v", err)
	}
	pubPEM, err := keys.EncodePublicPEM()
	if err != nil {
		t.Fatalf("EncodePublicPEM error: %v", err)
	}
	loaded, err := LoadKeyPair(privPEM, pubPEM, "top secret")
	if err != nil {
		t.Fatalf("LoadKeyPair error: %v", err)
	}
	if loaded.Private.N.Cmp(keys.Private.N) != 0 {
		t.Fatalf("reloaded key differs")
	}
	if _, err := LoadKeyPair(privPEM, pubPEM, "wrong pass"); err == nil {
		t.Fatalf("wrong passphrase should fail")
	}
	if _, err := LoadKeyPair(privPEM, pubPEM, ""); err == nil {
		t.Fatalf("missing passphrase should fail")
	}
}
