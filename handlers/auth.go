package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banglalekha/go-services/internal/cookies"
	"github.com/banglalekha/go-services/internal/sessions"
	"github.com/banglalekha/go-services/internal/tokens"
	"github.com/banglalekha/go-services/internal/users"
	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/middleware"
)

// UserStats counts a user's records in one of the content collections.
type UserStats interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Username *string `json:"username"`
}

// LoginRequest accepts either email or username plus the password.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	usersSvc  *users.Service
	engine    *tokens.Engine
	cookies   *cookies.Manager
	blacklist *sessions.Blacklist

	// optional stat sources for the profile endpoint
	translations  UserStats
	contributions UserStats
	chats         UserStats
}

func NewAuthHandler(u *users.Service, e *tokens.Engine, cm *cookies.Manager, bl *sessions.Blacklist) *AuthHandler {
	return &AuthHandler{usersSvc: u, engine: e, cookies: cm, blacklist: bl}
}

// WithStats wires the per-collection counters shown on the profile page.
func (h *AuthHandler) WithStats(translations, contributions, chats UserStats) *AuthHandler {
	h.translations = translations
	h.contributions = contributions
	h.chats = chats
	return h
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup, gate *middleware.Gate) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.POST("/refresh", h.Refresh)
	a.POST("/verify-email/:id", h.VerifyEmail)
	a.GET("/profile", gate.CheckAuth(true), h.Profile)
	a.GET("/user/profile/:id", h.PublicProfile)
}

func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists with the email"})
			return
		}
		logger.Errorf("register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create new user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": u})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" && req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either username or email must be provided"})
		return
	}

	u, err := h.usersSvc.Login(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "you are an inactive user, contact administration"})
		case errors.Is(err, users.ErrBadCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		default:
			logger.Errorf("login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	pair, err := h.engine.IssuePair(tokens.IdentityClaims(u))
	if err != nil {
		logger.Errorf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create tokens"})
		return
	}
	h.cookies.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         u,
		"expiresIn":    int(h.engine.AccessTTL().Seconds()),
	})
}

// Logout revokes the presented access token for its remaining lifetime and
// clears both cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.cookies.ReadAccessToken(c); token != "" {
		ttl := time.Minute
		if claims := h.engine.Decode(token); claims != nil && claims.ExpiresAt != nil {
			if rem := time.Until(claims.ExpiresAt.Time); rem > 0 {
				ttl = rem
			}
		}
		if err := h.blacklist.BlacklistAccessToken(c.Request.Context(), token, ttl); err != nil {
			logger.Warnf("failed to blacklist token on logout: %v", err)
		}
	}
	h.cookies.RemoveAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"data": "logged out"})
}

// Refresh mints a new pair from the refresh cookie (or an explicit body
// field) and re-sets both cookies. This is the explicit sibling of the
// gate's silent refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := h.cookies.ReadRefreshToken(c)
	if refresh == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			refresh = req.RefreshToken
		}
	}
	if refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no refresh token found"})
		return
	}

	pair, err := h.engine.RefreshAccessToken(refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	h.cookies.SetAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    int(h.engine.AccessTTL().Seconds()),
	})
}

// VerifyEmail activates an account. The verification link mailed out at
// registration points here.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	u, err := h.usersSvc.VerifyEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	resp := gin.H{"user": u}
	resp["translationsCount"] = h.count(c, h.translations, u.ID)
	resp["contributionsCount"] = h.count(c, h.contributions, u.ID)
	resp["chatsCount"] = h.count(c, h.chats, u.ID)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *AuthHandler) count(c *gin.Context, s UserStats, userID string) int64 {
	if s == nil {
		return 0
	}
	n, err := s.CountByUser(c.Request.Context(), userID)
	if err != nil {
		logger.Warnf("profile count failed: %v", err)
		return 0
	}
	return n
}

func (h *AuthHandler) PublicProfile(c *gin.Context) {
	u, err := h.usersSvc.GetPublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	// never leak role/activation internals on the public surface
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":       u.ID,
		"email":    u.Email,
		"username": u.Username,
	}})
}
