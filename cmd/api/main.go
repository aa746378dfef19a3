package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/app/migrate"
	httpx "github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/http"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository/postgres"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/announcement"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/auth"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/quiz"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/ws"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/config"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(config.GetString("LOG_LEVEL", "info")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Up(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	feedHub := ws.NewHub()

	authSvc := auth.New(repo, repo, log, cfg)
	announcementSvc := announcement.New(repo, feedHub, log)
	quizSvc := quiz.New(repo, log)

	go authSvc.SweepRevoked(ctx)

	var limiter httpx.RateLimiter
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}
	if limiter == nil {
		limiter = httpx.NewMemoryRateLimiter()
	}

	router := httpx.NewRouter(log, authSvc, announcementSvc, quizSvc, feedHub, limiter, pool.Ping, cfg.WSReadLimit)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
