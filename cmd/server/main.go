package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/auth"
	"procurement-be/internal/catalog"
	"procurement-be/internal/config"
	"procurement-be/internal/db"
	"procurement-be/internal/journal"
	"procurement-be/internal/logger"
	"procurement-be/internal/metrics"
	"procurement-be/internal/middleware"
	"procurement-be/internal/notify"
	"procurement-be/internal/order"
	"procurement-be/internal/stock"
	"procurement-be/internal/transport"
	"procurement-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

// app is the assembled server and the background work it owns.
type app struct {
	handler    http.Handler
	limiter    *middleware.RateLimiter
	dispatcher *notify.WebhookDispatcher
}

func newServer(cfg *config.Config, database *sql.DB) *app {
	reg := metrics.NewRegistry()
	policy := access.NewRoleTable()
	txr := db.NewTxRunner(database)

	productRepo := catalog.NewRepository(database)
	userRepo := user.NewRepository(database)
	journalRepo := journal.NewRepository(database)
	orderRepo := order.NewRepository(database)
	stockRepo := stock.NewRepository(database)

	a := &app{limiter: middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst)}

	dispatchers := notify.Multi{notify.NewLogDispatcher()}
	if cfg.NotifyWebhookURL != "" {
		a.dispatcher = notify.NewWebhookDispatcher(notify.WebhookConfig{
			URL:        cfg.NotifyWebhookURL,
			RatePerSec: cfg.NotifyRatePerSec,
			QueueSize:  cfg.NotifyQueueSize,
		}, reg)
		dispatchers = append(dispatchers, a.dispatcher)
	}

	h := &transport.Handler{
		Orders:   order.NewService(txr, orderRepo, productRepo, journalRepo, policy, dispatchers, reg),
		Products: catalog.NewService(productRepo, policy),
		Stock:    stock.NewService(txr, stockRepo, productRepo, userRepo, journalRepo, policy, dispatchers, reg),
		Journal:  journal.NewService(journalRepo, policy),
		Users:    user.NewService(userRepo, policy),
		Metrics:  reg,
		DB:       database,
	}

	a.handler = h.Routes(
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigin),
		middleware.AuthMiddleware(auth.NewVerifier(cfg.JWTSecret)),
		a.limiter.Middleware,
	)
	return a
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warn("ignoring LOG_LEVEL", zap.String("value", cfg.LogLevel), zap.Error(err))
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; every bearer token will be rejected")
	}

	database := initDBFunc(cfg)
	defer database.Close()

	a := newServer(cfg, database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go a.limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(shutdownCtx); err != nil {
			log.Warn("notification queue not drained", zap.Error(err))
		}
	}
	log.Info("server stopped")
	return nil
}
