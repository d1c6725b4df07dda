// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"page-auth-service/internal/config"
	pg "page-auth-service/internal/infra/db/postgres"
	"page-auth-service/internal/infra/logging"
	"page-auth-service/internal/infra/metrics"
	"page-auth-service/internal/infra/oauth"
	red "page-auth-service/internal/infra/redis"
	"page-auth-service/internal/infra/sched"
	"page-auth-service/internal/infra/token"
	"page-auth-service/internal/infra/web"
	"page-auth-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	accountRepo := pg.NewAccountRepo(pool)
	codeRepo := pg.NewRedeemCodeRepo(pool)
	serviceAccountRepo := pg.NewServiceAccountRepo(pool)
	pageConfigRepo := pg.NewPageConfigRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Tokens & sessions ----
	codec := token.NewCodec(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.ProxyTTL)
	sessions := web.NewSessionManager(codec, cfg.Session.CookieName, cfg.Server.SecureCookies)

	// ---- Use cases ----
	statusUC := usecase.NewStatusUseCase(accountRepo, serviceAccountRepo, txManager, codec, logger)
	redeemUC := usecase.NewRedeemUseCase(codeRepo, accountRepo, serviceAccountRepo, pageConfigRepo, codec, logger)

	// ---- Identity provider ----
	idp := oauth.NewNaverProvider(cfg.Provider, cfg.CallbackURL())

	// ---- HTTP server ----
	srv := web.NewServer(statusUC, redeemUC, idp, sessions, rateLimiter, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Reconcile worker ----
	worker := sched.NewReconcileWorker(5*time.Minute, redeemUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
