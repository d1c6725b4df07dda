package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"page-auth-service/internal/domain"
)

// ===== Session/JWT primitives =====

// SessionClaims is the browser-held session credential. It is computed from
// identity-provider claims at issue time and never stored server-side.
type SessionClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ProxyClaims is the downstream token minted for collaborator services.
// Shorter-lived than the session credential and carries the page binding.
type ProxyClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	PageID string `json:"page_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies both token shapes with a single process-wide
// HMAC secret. Wrapped behind this type so key rotation can later resolve
// multiple active secrets without touching call sites.
type Codec struct {
	secret     []byte
	sessionTTL time.Duration
	proxyTTL   time.Duration
}

func NewCodec(secret string, sessionTTL, proxyTTL time.Duration) *Codec {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	if proxyTTL <= 0 {
		proxyTTL = time.Hour
	}
	return &Codec{secret: []byte(secret), sessionTTL: sessionTTL, proxyTTL: proxyTTL}
}

func (c *Codec) SessionTTL() time.Duration { return c.sessionTTL }

// MintSession signs a session credential for the given provider subject.
func (c *Codec) MintSession(subject, name, email string) (string, error) {
	if subject == "" {
		return "", domain.ErrInvalidArgument
	}
	now := time.Now()
	claims := SessionClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// ParseSession verifies a session credential. Every failure mode (bad
// signature, expired, malformed, missing subject or expiry) maps to
// domain.ErrTokenInvalid; callers treat it identically to an absent token.
func (c *Codec) ParseSession(tok string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := c.parse(tok, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// MintProxy signs a downstream token binding the user to a page.
func (c *Codec) MintProxy(userID, role, pageID string) (string, error) {
	if userID == "" || pageID == "" {
		return "", domain.ErrInvalidArgument
	}
	now := time.Now()
	claims := ProxyClaims{
		UserID: userID,
		Role:   role,
		PageID: pageID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.proxyTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) ParseProxy(tok string) (*ProxyClaims, error) {
	claims := &ProxyClaims{}
	if err := c.parse(tok, claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.PageID == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// parse runs signature and registered-claim validation. The HMAC comparison
// inside the jwt library is constant-time; expiry is mandatory so a token
// without exp never validates.
func (c *Codec) parse(tok string, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}
