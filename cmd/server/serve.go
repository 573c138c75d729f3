package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dtroode/otptasks-server/database"
	httpctx "github.com/dtroode/otptasks-server/internal/api/http/context"
	"github.com/dtroode/otptasks-server/internal/api/http/router"
	httpserver "github.com/dtroode/otptasks-server/internal/api/http/server"
	"github.com/dtroode/otptasks-server/internal/config"
	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/metrics"
	"github.com/dtroode/otptasks-server/internal/model"
	"github.com/dtroode/otptasks-server/internal/otp"
	"github.com/dtroode/otptasks-server/internal/repository/postgres"
	"github.com/dtroode/otptasks-server/internal/server"
	"github.com/dtroode/otptasks-server/internal/service"
	"github.com/dtroode/otptasks-server/internal/token"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
			defer stop()

			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			return runServer(ctx, cfg, logger.New(cfg.LogLevel, cfg.LogFormat))
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	logger.Info("starting otptasks server",
		"version", buildVersion,
		"build_date", buildDate,
		"commit", buildCommit)

	if cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY is not set, using the development default; tokens are forgeable")
	}
	if cfg.OTP.Echo {
		logger.Warn("OTP_ECHO is enabled, one-time codes are returned in API responses")
	}

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer db.Close()

	tokenManager, err := token.NewJWT(cfg.Token.SecretKey, cfg.Token.Algorithm, cfg.Token.TTL())
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	authLogger := logger.With("component", "auth")
	tokenService := service.NewTokenService(tokenManager, authLogger)
	authService := service.NewAuth(otp.NewGenerator(), otp.NewLogSender(logger.With("component", "otp")), tokenService, cfg.OTP.TTL(), authLogger)
	taskService := service.NewTask(appMetrics, logger.With("component", "tasks"))

	gin.SetMode(gin.ReleaseMode)
	r := router.New(
		authService,
		taskService,
		postgres.NewTransactor(db),
		httpctx.NewManager(),
		db,
		appMetrics,
		registry,
		router.Options{
			BasePath:       cfg.HTTP.BasePath,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			EchoOTP:        cfg.OTP.Echo,
		},
		logger.With("component", "http"),
	)
	httpServer := httpserver.NewHTTPServer(r.Register(), cfg.HTTP.Addr)
	sl := server.New(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	errCh := make(chan error, 1)
	go func(s model.Server) {
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		errCh <- s.Start(sl)
	}(httpServer)

	select {
	case <-ctx.Done():
		logger.Info("received interruption signal, shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}
	if err := <-errCh; err != nil {
		logger.Error("server stopped with error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
