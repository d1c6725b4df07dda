//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/domain/model"
	"page-auth-service/internal/domain/ports/provider"
	"page-auth-service/internal/infra/token"
	"page-auth-service/internal/usecase"
)

//
// ---------------- fakes ----------------
//

type fakeProvider struct {
	profile     *provider.Profile
	exchangeErr error
	profileErr  error

	lastCode  string
	lastState string
}

func (f *fakeProvider) AuthorizeURL(state string) string {
	return "https://provider.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, code, state string) (string, error) {
	f.lastCode, f.lastState = code, state
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "access-token", nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, accessToken string) (*provider.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

type fakeStatusUC struct {
	result *usecase.StatusResult
	err    error

	lastIdentity string
}

func (f *fakeStatusUC) Check(ctx context.Context, identityID, displayName, email string) (*usecase.StatusResult, error) {
	f.lastIdentity = identityID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeRedeemUC struct {
	result *usecase.RedeemResult
	err    error

	lastIdentity string
	lastInput    usecase.RedeemInput
}

func (f *fakeRedeemUC) Redeem(ctx context.Context, identityID, displayName, email string, in usecase.RedeemInput) (*usecase.RedeemResult, error) {
	f.lastIdentity = identityID
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRedeemUC) Reconcile(ctx context.Context) (int, error) { return 0, nil }

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, nil
}

//
// ---------------- helpers ----------------
//

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

type fixture struct {
	codec    *token.Codec
	sessions *SessionManager
	provider *fakeProvider
	status   *fakeStatusUC
	redeem   *fakeRedeemUC
	server   *Server
	router   http.Handler
}

func newFixture(limiter Limiter) *fixture {
	codec := token.NewCodec("test-signing-secret-please-change", time.Hour, time.Hour)
	f := &fixture{
		codec:    codec,
		sessions: NewSessionManager(codec, "page_session", false),
		provider: &fakeProvider{profile: &provider.Profile{ID: "abc123", Name: "Hong Gildong", Email: "g@example.com"}},
		status:   &fakeStatusUC{result: &usecase.StatusResult{State: usecase.StateNeedsCode, Account: &model.Account{ID: "acc-1"}}},
		redeem:   &fakeRedeemUC{result: &usecase.RedeemResult{PageID: "p1", ProxyToken: "proxy-token"}},
	}
	f.server = NewServer(f.status, f.redeem, f.provider, f.sessions, limiter, nopLogger())
	f.router = f.server.Router()
	return f
}

func (f *fixture) sessionCookie(t *testing.T, subject, name, email string) *http.Cookie {
	t.Helper()
	signed, err := f.codec.MintSession(subject, name, email)
	if err != nil {
		t.Fatalf("mint session: %v", err)
	}
	return &http.Cookie{Name: "page_session", Value: signed}
}

func findCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

//
// ---------------- tests ----------------
//

func TestLogin(t *testing.T) {
	f := newFixture(nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/naver/login", nil))
	res := rec.Result()

	if res.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", res.StatusCode)
	}
	state := findCookie(res, stateCookieName)
	if state == nil || state.Value == "" {
		t.Fatal("login must pin a state cookie")
	}
	loc := res.Header.Get("Location")
	if !strings.Contains(loc, "state="+state.Value) {
		t.Errorf("redirect %q does not carry the state nonce", loc)
	}
}

func TestCallback(t *testing.T) {
	t.Run("happy path mints a session for the prefixed subject", func(t *testing.T) {
		f := newFixture(nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/naver/callback?code=authcode&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		res := rec.Result()

		if res.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", res.StatusCode)
		}
		if f.provider.lastCode != "authcode" {
			t.Errorf("exchange saw code %q", f.provider.lastCode)
		}

		session := findCookie(res, "page_session")
		if session == nil || session.Value == "" {
			t.Fatal("no session cookie set")
		}
		claims, err := f.codec.ParseSession(session.Value)
		if err != nil {
			t.Fatalf("session cookie does not verify: %v", err)
		}
		if claims.Subject != "naver:abc123" {
			t.Errorf("expected subject naver:abc123, got %q", claims.Subject)
		}
		if claims.Name != "Hong Gildong" || claims.Email != "g@example.com" {
			t.Errorf("unexpected profile claims: %+v", claims)
		}

		state := findCookie(res, stateCookieName)
		if state == nil || state.MaxAge >= 0 {
			t.Error("state cookie must be cleared after the callback")
		}
	})

	t.Run("state mismatch fails before any provider call", func(t *testing.T) {
		f := newFixture(nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/naver/callback?code=authcode&state=evil", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		res := rec.Result()

		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", res.StatusCode)
		}
		if findCookie(res, "page_session") != nil {
			t.Error("mismatched state must not produce a session cookie")
		}
		if f.provider.lastCode != "" {
			t.Error("provider must not be contacted on state mismatch")
		}
	})

	t.Run("missing state cookie is a mismatch too", func(t *testing.T) {
		f := newFixture(nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/naver/callback?code=authcode&state=s1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing code answers 400 before any provider call", func(t *testing.T) {
		f := newFixture(nil)
		req := httptest.NewRequest(http.MethodGet, "/auth/naver/callback?state=s1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		res := rec.Result()

		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", res.StatusCode)
		}
		if f.provider.lastCode != "" || f.provider.lastState != "" {
			t.Error("provider must not be contacted without an authorization code")
		}
		if findCookie(res, "page_session") != nil {
			t.Error("missing code must not produce a session cookie")
		}
	})

	t.Run("provider denial answers 401", func(t *testing.T) {
		f := newFixture(nil)
		req := httptest.NewRequest(http.MethodGet, "/auth/naver/callback?error=access_denied&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("exchange failure answers 401", func(t *testing.T) {
		f := newFixture(nil)
		f.provider.exchangeErr = domain.ErrProviderDenied
		req := httptest.NewRequest(http.MethodGet, "/auth/naver/callback?code=bad&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s1"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		res := rec.Result()
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", res.StatusCode)
		}
		if findCookie(res, "page_session") != nil {
			t.Error("failed exchange must not produce a session cookie")
		}
	})
}

func TestSessionEndpoint(t *testing.T) {
	t.Run("anonymous caller gets authenticated=false", func(t *testing.T) {
		f := newFixture(nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Authenticated || body.State != usecase.StateUnauthenticated {
			t.Errorf("unexpected body: %+v", body)
		}
	})

	t.Run("garbage session cookie is treated as anonymous", func(t *testing.T) {
		f := newFixture(nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.AddCookie(&http.Cookie{Name: "page_session", Value: "not.a.jwt"})
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		var body sessionResponse
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if body.Authenticated {
			t.Error("unverifiable cookie must not authenticate")
		}
	})

	t.Run("provisioned caller gets ready plus token", func(t *testing.T) {
		f := newFixture(nil)
		f.status.result = &usecase.StatusResult{
			State:      usecase.StateReady,
			PageID:     "p1",
			ProxyToken: "proxy-token",
			Account:    &model.Account{ID: "acc-1"},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.AddCookie(f.sessionCookie(t, "naver:abc123", "Hong", "g@example.com"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		var body sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.Authenticated || body.State != usecase.StateReady || body.PageID != "p1" || body.ProxyToken != "proxy-token" {
			t.Errorf("unexpected body: %+v", body)
		}
		if body.User == nil || body.User.Name != "Hong" {
			t.Errorf("expected user block, got %+v", body.User)
		}
		if f.status.lastIdentity != "naver:abc123" {
			t.Errorf("status check saw identity %q", f.status.lastIdentity)
		}
	})

	t.Run("store failure surfaces as 500", func(t *testing.T) {
		f := newFixture(nil)
		f.status.err = errors.New("store down")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.AddCookie(f.sessionCookie(t, "naver:abc123", "", ""))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestRedeemEndpoint(t *testing.T) {
	post := func(f *fixture, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/redeem", strings.NewReader(body))
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("requires a session", func(t *testing.T) {
		f := newFixture(nil)
		if rec := post(f, `{"code":"ABCXYZ"}`, nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("success returns page binding and token", func(t *testing.T) {
		f := newFixture(nil)
		rec := post(f, `{"code":"ABCXYZ","page_title":"Our Page"}`, f.sessionCookie(t, "naver:abc123", "Hong", ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body redeemResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !body.OK || body.State != usecase.StateReady || body.PageID != "p1" || body.ProxyToken != "proxy-token" {
			t.Errorf("unexpected body: %+v", body)
		}
		if body.User == nil || body.User.Name != "Hong" {
			t.Errorf("expected user block, got %+v", body.User)
		}
		if f.redeem.lastIdentity != "naver:abc123" || f.redeem.lastInput.PageTitle != "Our Page" {
			t.Errorf("use case saw identity %q input %+v", f.redeem.lastIdentity, f.redeem.lastInput)
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			name    string
			err     error
			status  int
			message string
		}{
			{"unknown code", domain.ErrCodeInvalid, http.StatusBadRequest, "invalid code"},
			{"missing code", domain.ErrInvalidArgument, http.StatusBadRequest, "code is required"},
			{"already provisioned", domain.ErrAlreadyProvisioned, http.StatusBadRequest, "account already has a page"},
			{"store failure", errors.New("store down"), http.StatusInternalServerError, "internal error"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(nil)
				f.redeem.err = tc.err
				rec := post(f, `{"code":"ABCXYZ"}`, f.sessionCookie(t, "naver:abc123", "", ""))
				if rec.Code != tc.status {
					t.Fatalf("expected %d, got %d", tc.status, rec.Code)
				}
				var body map[string]string
				_ = json.NewDecoder(rec.Body).Decode(&body)
				if body["error"] != tc.message {
					t.Errorf("expected message %q, got %q", tc.message, body["error"])
				}
			})
		}
	})

	t.Run("over-limit attempts answer 429", func(t *testing.T) {
		f := newFixture(denyLimiter{})
		rec := post(f, `{"code":"ABCXYZ"}`, f.sessionCookie(t, "naver:abc123", "", ""))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		f := newFixture(nil)
		rec := post(f, `{"code":`, f.sessionCookie(t, "naver:abc123", "", ""))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil)
	req.AddCookie(f.sessionCookie(t, "naver:abc123", "", ""))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	res := rec.Result()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	session := findCookie(res, "page_session")
	if session == nil || session.MaxAge >= 0 {
		t.Error("logout must expire the session cookie")
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
