// Package cookies translates a token pair into the two auth cookies the
// access gate reads back on later requests, and clears them on logout.
package cookies

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	// The refresh cookie is scoped to the API subtree so browsers only send
	// it where a refresh can actually happen. Clearing must use the same
	// path or the browser keeps the cookie.
	AccessCookiePath  = "/"
	RefreshCookiePath = "/api/v1"

	// signedPrefix marks HMAC-enveloped cookie values (express cookie-parser
	// compatible, so the original frontend keeps working).
	signedPrefix = "s:"
)

// Manager writes and removes the auth cookie pair. Both cookies are httpOnly,
// SameSite=None and tamper-evident via an HMAC over the value; lifetimes
// track the token TTLs so a cookie never outlives its token.
type Manager struct {
	secret     []byte
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, secure bool, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		secure:     secure,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SetAuthCookies writes both cookies onto the outgoing response. No
// server-side state is touched.
func (m *Manager) SetAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	m.set(c, AccessCookieName, accessToken, AccessCookiePath, int(m.accessTTL.Seconds()))
	m.set(c, RefreshCookieName, refreshToken, RefreshCookiePath, int(m.refreshTTL.Seconds()))
}

// RemoveAuthCookies clears both cookies using the same path and flag
// metadata used at set time.
func (m *Manager) RemoveAuthCookies(c *gin.Context) {
	m.set(c, AccessCookieName, "", AccessCookiePath, -1)
	m.set(c, RefreshCookieName, "", RefreshCookiePath, -1)
}

func (m *Manager) set(c *gin.Context, name, value, path string, maxAge int) {
	if value != "" {
		value = m.Sign(value)
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

// ReadAccessToken extracts the access token from the request: signed cookie
// first, then plain cookie. Returns "" when absent.
func (m *Manager) ReadAccessToken(c *gin.Context) string {
	return m.read(c, AccessCookieName)
}

// ReadRefreshToken extracts the refresh token from the request.
func (m *Manager) ReadRefreshToken(c *gin.Context) string {
	return m.read(c, RefreshCookieName)
}

func (m *Manager) read(c *gin.Context, name string) string {
	raw, err := c.Cookie(name)
	if err != nil || raw == "" {
		return ""
	}
	if value, ok := m.Unsign(raw); ok {
		return value
	}
	if strings.HasPrefix(raw, signedPrefix) {
		// signed envelope with a bad signature is never trusted
		return ""
	}
	return raw
}

// Sign wraps value in a tamper-evident envelope: "s:<value>.<mac>".
func (m *Manager) Sign(value string) string {
	return signedPrefix + value + "." + m.mac(value)
}

// Unsign validates the envelope and returns the inner value. The second
// return is false for unsigned input or a bad signature.
func (m *Manager) Unsign(raw string) (string, bool) {
	if !strings.HasPrefix(raw, signedPrefix) {
		return "", false
	}
	body := raw[len(signedPrefix):]
	idx := strings.LastIndex(body, ".")
	if idx < 0 {
		return "", false
	}
	value, sig := body[:idx], body[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(m.mac(value))) {
		return "", false
	}
	return value, true
}

func (m *Manager) mac(value string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
