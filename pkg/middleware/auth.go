package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/banglalekha/go-services/internal/cookies"
	"github.com/banglalekha/go-services/internal/models"
	"github.com/banglalekha/go-services/internal/tokens"
	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/metrics"
)

const identityKey = "authIdentity"

// Identity is the per-request identity sum: anonymous or a verified claims
// set. Consumers must handle the anonymous case explicitly.
type Identity struct {
	claims *tokens.Claims
}

// Anonymous is the identity of an unauthenticated request.
func Anonymous() Identity { return Identity{} }

// Identified wraps verified claims into an identity.
func Identified(c *tokens.Claims) Identity { return Identity{claims: c} }

// Claims returns the verified claims and true, or nil and false when the
// request is anonymous.
func (id Identity) Claims() (*tokens.Claims, bool) {
	return id.claims, id.claims != nil
}

// CurrentIdentity reads the identity attached by the gate. Requests that
// never passed through the gate read as anonymous.
func CurrentIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok2 := v.(Identity); ok2 {
			return id
		}
	}
	return Anonymous()
}

// Blacklist is the deny-list consulted before trusting an access token.
type Blacklist interface {
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// Gate is the per-request access gatekeeper. It extracts a token from cookie
// or header, verifies it, and on verified expiry performs exactly one silent
// refresh via the refresh cookie before resuming the request. No other
// failure is ever retried.
type Gate struct {
	engine    *tokens.Engine
	cookies   *cookies.Manager
	blacklist Blacklist
}

func NewGate(engine *tokens.Engine, cm *cookies.Manager, bl Blacklist) *Gate {
	return &Gate{engine: engine, cookies: cm, blacklist: bl}
}

// CheckAuth returns the gate middleware for one route. An empty role set
// admits any authenticated identity; required=false lets requests without
// any credential continue anonymously.
func (g *Gate) CheckAuth(required bool, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := g.extractToken(c)
		if token == "" {
			if !required {
				c.Set(identityKey, Anonymous())
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
			return
		}

		if g.blacklist != nil {
			black, err := g.blacklist.IsAccessTokenBlacklisted(c.Request.Context(), token)
			if err != nil {
				// revocation is unavailable, not denied; admit but leave a trace
				logger.Warnf("blacklist check failed, token revocation unavailable: %v", err)
			} else if black {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
				return
			}
		}

		claims, err := g.engine.VerifyAccess(token)
		switch {
		case err == nil:
			g.admit(c, claims, required, roles)

		case errors.Is(err, tokens.ErrTokenExpired):
			// single recovery transition, never a loop
			g.recover(c, required, roles)

		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		}
	}
}

// recover attempts the one silent refresh allowed per request.
func (g *Gate) recover(c *gin.Context, required bool, roles []models.Role) {
	refresh := g.cookies.ReadRefreshToken(c)
	if refresh == "" {
		metrics.SilentRefreshes.WithLabelValues("no_refresh_token").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no refresh token found"})
		return
	}

	pair, err := g.engine.RefreshAccessToken(refresh)
	if err != nil {
		metrics.SilentRefreshes.WithLabelValues("failed").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	g.cookies.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)

	claims, err := g.engine.VerifyAccess(pair.AccessToken)
	if err != nil {
		metrics.SilentRefreshes.WithLabelValues("failed").Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	metrics.SilentRefreshes.WithLabelValues("ok").Inc()
	g.admit(c, claims, required, roles)
}

func (g *Gate) admit(c *gin.Context, claims *tokens.Claims, required bool, roles []models.Role) {
	if len(roles) > 0 && required {
		allowed := false
		for _, r := range roles {
			if claims.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden access"})
			return
		}
	}
	c.Set(identityKey, Identified(claims))
	c.Next()
}

// extractToken takes the access token from the signed cookie, then the plain
// cookie, then the `authentication: Bearer <token>` header.
func (g *Gate) extractToken(c *gin.Context) string {
	if tok := g.cookies.ReadAccessToken(c); tok != "" {
		return tok
	}
	header := c.GetHeader("authentication")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}
