package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"page-auth-service/internal/domain/ports/provider"
	"page-auth-service/internal/usecase"
)

// Limiter throttles a keyed action inside a sliding window. Satisfied by
// redis.RateLimiter; a nil Limiter disables throttling (tests, dev).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Per-window request budgets.
const (
	redeemLimit     = 5
	callbackLimit   = 10
	rateLimitWindow = time.Minute
)

type Server struct {
	statusUC usecase.StatusUseCase
	redeemUC usecase.RedeemUseCase
	provider provider.IdentityProvider
	sessions *SessionManager
	limiter  Limiter
	log      *zerolog.Logger
}

func NewServer(
	statusUC usecase.StatusUseCase,
	redeemUC usecase.RedeemUseCase,
	idp provider.IdentityProvider,
	sessions *SessionManager,
	limiter Limiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statusUC: statusUC,
		redeemUC: redeemUC,
		provider: idp,
		sessions: sessions,
		limiter:  limiter,
		log:      logger,
	}
}

// Router builds the full route table. Middleware order matters: trace IDs
// first so every later log line carries one.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/auth/naver/login", s.handleLogin)
	r.Get("/auth/naver/callback", s.handleCallback)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Post("/redeem", s.handleRedeem)
		r.Post("/logout", s.handleLogout)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(15*time.Second),
	)
}

// allow consults the limiter when one is wired.
func (s *Server) allow(ctx context.Context, key string, limit int) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(ctx, key, limit, rateLimitWindow)
	if err != nil {
		// Limiter outage must not take logins down with it.
		s.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		return true
	}
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
