package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/banglalekha/go-services/internal/models"
)

// Kind distinguishes the two token flavours carried in the `type` claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalidToken covers every structural failure: bad signature,
	// malformed payload, wrong algorithm, wrong token type.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired means the signature verified but exp has passed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrRefreshTokenExpired wraps ErrTokenExpired so callers can match either.
	ErrRefreshTokenExpired = fmt.Errorf("refresh %w", ErrTokenExpired)
)

// Claims is the signed payload identifying a user plus token metadata.
type Claims struct {
	Email           string      `json:"email"`
	Username        *string     `json:"username"`
	Role            models.Role `json:"role"`
	IsActive        bool        `json:"isActive"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	UserID          string      `json:"id"`
	Type            Kind        `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly minted access/refresh token couple. Superseded
// in full on every login and on every silent refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Engine creates and verifies signed, typed, expiring tokens. It holds only
// immutable key material and is safe for concurrent use.
type Engine struct {
	keys       *KeyPair
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewEngine builds an Engine around the given key pair and lifetimes.
func NewEngine(keys *KeyPair, accessTTL, refreshTTL time.Duration) *Engine {
	return &Engine{keys: keys, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// AccessTTL returns the configured access token lifetime.
func (e *Engine) AccessTTL() time.Duration { return e.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (e *Engine) RefreshTTL() time.Duration { return e.refreshTTL }

// IdentityClaims builds claims for a user without token metadata; Issue fills
// in type, iat and exp.
func IdentityClaims(u *models.User) Claims {
	return Claims{
		Email:           u.Email,
		Username:        u.Username,
		Role:            u.Role,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		UserID:          u.ID,
	}
}

// Issue signs a token of the requested kind. Identity fields are taken from c;
// type, iat and exp are always set fresh.
func (e *Engine) Issue(c Claims, kind Kind) (string, error) {
	ttl := e.accessTTL
	if kind == KindRefresh {
		ttl = e.refreshTTL
	}
	now := e.now()
	c.Type = kind
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	c.ID = ""
	jt := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	signed, err := jt.SignedString(e.keys.Private)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssuePair mints a brand-new access/refresh pair from identity claims.
func (e *Engine) IssuePair(c Claims) (*TokenPair, error) {
	access, err := e.Issue(c, KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := e.Issue(c, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature and expiry and returns the claims. Expiry is
// reported as ErrTokenExpired; every other failure as ErrInvalidToken.
func (e *Engine) Verify(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return e.keys.Public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithTimeFunc(e.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// VerifyAccess verifies and additionally rejects tokens not typed "access".
func (e *Engine) VerifyAccess(token string) (*Claims, error) {
	claims, err := e.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != KindAccess {
		return nil, fmt.Errorf("%w: token type %q where access expected", ErrInvalidToken, claims.Type)
	}
	return claims, nil
}

// VerifyRefresh verifies and additionally rejects tokens not typed "refresh".
func (e *Engine) VerifyRefresh(token string) (*Claims, error) {
	claims, err := e.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != KindRefresh {
		return nil, fmt.Errorf("%w: token type %q where refresh expected", ErrInvalidToken, claims.Type)
	}
	return claims, nil
}

// Decode parses claims without any verification. Introspection only; never
// use the result for trust decisions.
func (e *Engine) Decode(token string) *Claims {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	return &claims
}

// IsExpired reports whether the token's exp has passed, without verifying it.
// Unparseable tokens count as expired.
func (e *Engine) IsExpired(token string) bool {
	claims := e.Decode(token)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !e.now().Before(claims.ExpiresAt.Time)
}

// RefreshAccessToken verifies the refresh token, strips its token metadata
// and issues a brand-new pair from the remaining identity claims.
func (e *Engine) RefreshAccessToken(refreshToken string) (*TokenPair, error) {
	claims, err := e.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, err
	}
	identity := *claims
	identity.Type = ""
	identity.RegisteredClaims = jwt.RegisteredClaims{}
	return e.IssuePair(identity)
}
