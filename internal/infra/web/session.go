package web

import (
	"net/http"
	"time"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/infra/token"
)

const stateCookieName = "oauth_state"

// stateTTL bounds how long a login attempt may sit between the redirect to
// the provider and the callback.
const stateTTL = 10 * time.Minute

// SessionManager owns the two browser cookies: the signed session credential
// and the short-lived OAuth state nonce. All server-side state lives in the
// token itself.
type SessionManager struct {
	codec      *token.Codec
	cookieName string
	secure     bool
}

func NewSessionManager(codec *token.Codec, cookieName string, secure bool) *SessionManager {
	return &SessionManager{codec: codec, cookieName: cookieName, secure: secure}
}

// IssueSession mints a session token for the subject and sets it as the
// session cookie.
func (m *SessionManager) IssueSession(w http.ResponseWriter, subject, name, email string) (string, error) {
	signed, err := m.codec.MintSession(subject, name, email)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.codec.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return signed, nil
}

// ClearSession expires the session cookie.
func (m *SessionManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadSession verifies the session cookie. A missing or unverifiable cookie
// is domain.ErrUnauthenticated; handlers treat both identically.
func (m *SessionManager) ReadSession(r *http.Request) (*token.SessionClaims, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := m.codec.ParseSession(c.Value)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// SetState stores the per-attempt CSRF nonce. SameSite=Lax so the cookie is
// sent on the provider's top-level redirect back to the callback.
func (m *SessionManager) SetState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadState returns the stored nonce, or "" when the cookie is absent.
func (m *SessionManager) ReadState(r *http.Request) string {
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ClearState expires the state cookie once the callback consumed it.
func (m *SessionManager) ClearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
