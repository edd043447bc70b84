package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banglalekha/go-services/internal/cookies"
	"github.com/banglalekha/go-services/internal/models"
	"github.com/banglalekha/go-services/internal/tokens"
)

type gateFixture struct {
	keys    *tokens.KeyPair
	engine  *tokens.Engine
	cookies *cookies.Manager
	gate    *Gate
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	keys, err := tokens.GenerateKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	engine := tokens.NewEngine(keys, 15*time.Minute, 15*24*time.Hour)
	cm := cookies.NewManager("gate-test-secret", true, 15*time.Minute, 15*24*time.Hour)
	return &gateFixture{keys: keys, engine: engine, cookies: cm, gate: NewGate(engine, cm, nil)}
}

// expiredEngine shares the fixture keys but mints tokens that are already
// past their exp.
func (f *gateFixture) expiredEngine(accessExpired, refreshExpired bool) *tokens.Engine {
	accessTTL := 15 * time.Minute
	refreshTTL := 15 * 24 * time.Hour
	if accessExpired {
		accessTTL = -time.Minute
	}
	if refreshExpired {
		refreshTTL = -time.Minute
	}
	return tokens.NewEngine(f.keys, accessTTL, refreshTTL)
}

func (f *gateFixture) router(required bool, roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.GET("/api/v1/resource", f.gate.CheckAuth(required, roles...), func(c *gin.Context) {
		if claims, ok := CurrentIdentity(c).Claims(); ok {
			c.JSON(http.StatusOK, gin.H{"user": claims.UserID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": nil})
	})
	return r
}

func (f *gateFixture) claims() tokens.Claims {
	return tokens.IdentityClaims(&models.User{
		ID:       "u-1",
		Email:    "u1@example.com",
		Role:     models.RoleUser,
		IsActive: true,
	})
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func setCookies(t *testing.T, req *http.Request, cm *cookies.Manager, access, refresh string) {
	t.Helper()
	if access != "" {
		req.AddCookie(&http.Cookie{Name: cookies.AccessCookieName, Value: cm.Sign(access)})
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: cookies.RefreshCookieName, Value: cm.Sign(refresh)})
	}
}

func TestGate_NoTokenOptional_Anonymous(t *testing.T) {
	f := newGateFixture(t)
	w := do(f.router(false), httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("optional route must pass anonymously, got %d", w.Code)
	}
}

func TestGate_NoTokenRequired_Unauthorized(t *testing.T) {
	f := newGateFixture(t)
	w := do(f.router(true), httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestGate_ValidCookieToken(t *testing.T) {
	f := newGateFixture(t)
	access, err := f.engine.Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w := do(f.router(true), req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGate_HeaderFallback(t *testing.T) {
	f := newGateFixture(t)
	access, err := f.engine.Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set("authentication", "Bearer "+access)
	w := do(f.router(true), req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via header fallback, got %d", w.Code)
	}
}

func TestGate_ExpiredAccessValidRefresh_SilentRefresh(t *testing.T) {
	f := newGateFixture(t)
	expired := f.expiredEngine(true, false)
	access, err := expired.Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	refresh, err := expired.Issue(f.claims(), tokens.KindRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, refresh)
	w := do(f.router(true), req)
	if w.Code != http.StatusOK {
		t.Fatalf("silent refresh should succeed, got %d: %s", w.Code, w.Body.String())
	}

	// both cookies must be freshly set
	res := w.Result()
	var gotAccess, gotRefresh bool
	for _, ck := range res.Cookies() {
		switch ck.Name {
		case cookies.AccessCookieName:
			gotAccess = ck.Value != ""
		case cookies.RefreshCookieName:
			gotRefresh = ck.Value != ""
		}
	}
	if !gotAccess || !gotRefresh {
		t.Fatalf("expected both cookies re-set, access=%v refresh=%v", gotAccess, gotRefresh)
	}
}

func TestGate_ExpiredAccessNoRefreshCookie(t *testing.T) {
	f := newGateFixture(t)
	access, err := f.expiredEngine(true, false).Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w := do(f.router(true), req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without refresh cookie, got %d", w.Code)
	}
}

func TestGate_BothExpired_UnauthorizedNoCookies(t *testing.T) {
	f := newGateFixture(t)
	expired := f.expiredEngine(true, true)
	access, err := expired.Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	refresh, err := expired.Issue(f.claims(), tokens.KindRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, refresh)
	w := do(f.router(true), req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when refresh is expired, got %d", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("no cookies should be set on failed refresh")
	}
}

func TestGate_InvalidToken_NoRefreshAttempt(t *testing.T) {
	f := newGateFixture(t)
	refresh, err := f.engine.Issue(f.claims(), tokens.KindRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	// garbage access token alongside a perfectly valid refresh cookie:
	// the gate must not attempt recovery for non-expiry failures
	setCookies(t, req, f.cookies, "not-a-jwt", refresh)
	w := do(f.router(true), req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("invalid token must not trigger a refresh")
	}
}

func TestGate_RoleCheck(t *testing.T) {
	f := newGateFixture(t)
	access, err := f.engine.Issue(f.claims(), tokens.KindAccess) // role USER
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w := do(f.router(true, models.RoleAdmin), req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("USER on an ADMIN route must be 403, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w = do(f.router(true, models.RoleUser, models.RoleAdmin), req)
	if w.Code != http.StatusOK {
		t.Fatalf("matching role must pass, got %d", w.Code)
	}

	// empty role set admits any authenticated identity
	req = httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w = do(f.router(true), req)
	if w.Code != http.StatusOK {
		t.Fatalf("empty role set must pass, got %d", w.Code)
	}
}

func TestGate_RoleCheckAfterRefresh(t *testing.T) {
	f := newGateFixture(t)
	expired := f.expiredEngine(true, false)
	access, err := expired.Issue(f.claims(), tokens.KindAccess) // role USER
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	refresh, err := expired.Issue(f.claims(), tokens.KindRefresh)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, refresh)
	w := do(f.router(true, models.RoleAdmin), req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("role check must re-run after refresh, got %d", w.Code)
	}
}

type fakeBlacklist struct{ tokens map[string]bool }

func (f *fakeBlacklist) IsAccessTokenBlacklisted(_ context.Context, token string) (bool, error) {
	return f.tokens[token], nil
}

func TestGate_BlacklistedToken(t *testing.T) {
	f := newGateFixture(t)
	access, err := f.engine.Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	f.gate = NewGate(f.engine, f.cookies, &fakeBlacklist{tokens: map[string]bool{access: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w := do(f.router(true), req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("blacklisted token must be rejected, got %d", w.Code)
	}
}

type failingBlacklist struct{}

func (failingBlacklist) IsAccessTokenBlacklisted(_ context.Context, _ string) (bool, error) {
	return false, errors.New("redis unavailable")
}

// A blacklist outage disables revocation but must not lock everyone out: a
// valid token is still admitted.
func TestGate_BlacklistErrorStillAdmits(t *testing.T) {
	f := newGateFixture(t)
	access, err := f.engine.Issue(f.claims(), tokens.KindAccess)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	f.gate = NewGate(f.engine, f.cookies, failingBlacklist{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	setCookies(t, req, f.cookies, access, "")
	w := do(f.router(true), req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token must be admitted when the blacklist errors, got %d", w.Code)
	}
}
