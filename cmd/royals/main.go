package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/royals-sales/royals/internal/app"
	"github.com/royals-sales/royals/internal/auth"
	"github.com/royals-sales/royals/internal/dashboard"
	"github.com/royals-sales/royals/internal/platform/cache"
	"github.com/royals-sales/royals/internal/platform/db"
	"github.com/royals-sales/royals/internal/products"
	"github.com/royals-sales/royals/internal/sales"
	"github.com/royals-sales/royals/internal/users"
	"github.com/royals-sales/royals/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	mailQueue := jobs.NewClient(redisOpts)
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authMiddleware := auth.NewMiddleware(tokens, logger)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, mailQueue, logger, auth.ServiceConfig{
		RequireVerified: cfg.AuthRequireVerified,
	})
	var google *auth.GoogleOAuth
	if cfg.GoogleOAuthConfigured() {
		google = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		logger.Info("google oauth credentials not set, provider login disabled")
	}
	authHandler := auth.NewHandler(logger, authService, google, authMiddleware, cfg.FrontendURL)

	dashCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashService := dashboard.NewService(dashboard.NewRepository(pool), dashCache)
	dashHandler := dashboard.NewHandler(logger, dashService)

	productsService := products.NewService(products.NewRepository(pool), dashCache, logger)
	productsHandler := products.NewHandler(logger, productsService)

	salesService := sales.NewService(sales.NewRepository(pool), dashCache, logger)
	salesHandler := sales.NewHandler(logger, salesService)

	usersService := users.NewService(users.NewRepository(pool), logger)
	usersHandler := users.NewHandler(logger, usersService)

	jobsHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		ProductsHandler:  productsHandler,
		SalesHandler:     salesHandler,
		UsersHandler:     usersHandler,
		DashboardHandler: dashHandler,
		JobsHandler:      jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
