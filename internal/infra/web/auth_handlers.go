package web

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/infra/logging"
	"page-auth-service/internal/infra/metrics"
	"page-auth-service/internal/infra/oauth"
	"page-auth-service/internal/infra/redis"
)

// handleLogin starts the authorization-code flow: mint a fresh state nonce,
// pin it to the browser, and send the browser to the provider.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.sessions.SetState(w, state)
	http.Redirect(w, r, s.provider.AuthorizeURL(state), http.StatusFound)
}

// handleCallback finishes the flow. The state check runs before any
// server-to-server call: a request that cannot prove it started the flow
// here never costs us a network round trip.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	if !s.allow(ctx, clientKey(r), callbackLimit) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	q := r.URL.Query()
	state := q.Get("state")
	if state == "" || state != s.sessions.ReadState(r) {
		metrics.ObserveLogin("state_mismatch")
		l.Warn().Err(domain.ErrStateMismatch).Msg("callback rejected")
		writeError(w, http.StatusBadRequest, "state mismatch")
		return
	}

	if denied := q.Get("error"); denied != "" {
		metrics.ObserveLogin("denied")
		s.sessions.ClearState(w)
		l.Warn().Str("provider_error", denied).Msg("provider denied authorization")
		writeError(w, http.StatusUnauthorized, "login failed")
		return
	}

	code := q.Get("code")
	if code == "" {
		metrics.ObserveLogin("missing_code")
		s.sessions.ClearState(w)
		l.Warn().Msg("callback missing authorization code")
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	accessToken, err := s.provider.ExchangeCode(ctx, code, state)
	if err != nil {
		metrics.ObserveLogin("exchange_failed")
		s.sessions.ClearState(w)
		l.Error().Err(err).Msg("code exchange failed")
		writeError(w, http.StatusUnauthorized, "login failed")
		return
	}
	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		metrics.ObserveLogin("profile_failed")
		s.sessions.ClearState(w)
		l.Error().Err(err).Msg("profile fetch failed")
		writeError(w, http.StatusUnauthorized, "login failed")
		return
	}

	subject := oauth.SubjectPrefix + profile.ID
	if _, err := s.sessions.IssueSession(w, subject, profile.Name, profile.Email); err != nil {
		metrics.ObserveLogin("mint_failed")
		l.Error().Err(err).Msg("session mint failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.sessions.ClearState(w)
	metrics.ObserveLogin("success")
	l.Info().Str("identity_id", subject).Msg("login completed")
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout clears the session cookie. Tokens already handed out stay
// valid until they expire; there is no server-side session to revoke.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// clientKey buckets callback attempts by client address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return redis.CallbackKey(host)
}
