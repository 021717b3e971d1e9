package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"fittrack/api/internal/auth"
	"fittrack/api/internal/config"
	apigrpc "fittrack/api/internal/grpc"
	internalhttp "fittrack/api/internal/http"
	"fittrack/api/internal/identity"
	"fittrack/api/internal/logging"
	"fittrack/api/internal/mail"
	"fittrack/api/internal/metrics"
	"fittrack/api/internal/oauth"
	"fittrack/api/internal/ratelimit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fittrack-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("store init failed: %w", err)
	}
	defer closeStore()

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("signer init failed: %w", err)
	}
	svc := identity.NewService(store, cfg.EmailVerificationTTL)

	opts := []internalhttp.Option{
		internalhttp.WithLogger(logger),
		internalhttp.WithMetrics(metrics.New()),
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			return fmt.Errorf("redis ping failed: %w", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", "error", err)
			}
		}()
		opts = append(opts, internalhttp.WithLimiter(
			ratelimit.NewRedis(redisClient, "fittrack:login", cfg.LoginRateLimit, cfg.LoginRateWindow),
		))
	} else {
		logger.Info("REDIS_ADDR unset, login throttling disabled")
	}

	if cfg.SMTPEnabled() {
		opts = append(opts, internalhttp.WithMailer(mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
		})))
	} else {
		logger.Info("SMTP_USER unset, emails are logged instead of sent")
	}

	if cfg.GoogleEnabled() {
		opts = append(opts, internalhttp.WithGoogle(
			oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		))
	} else {
		logger.Info("google sign-in disabled")
	}

	server := internalhttp.NewServer(cfg, svc, signer, opts...)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var health *apigrpc.HealthServer
	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		health = apigrpc.NewHealthServer(store, logger)
		grpcServer = apigrpc.NewServer(health)
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen error: %w", err)
		}
		go func() {
			logger.Info("grpc health listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				errs <- fmt.Errorf("grpc server error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errs:
		logger.Error("server failed", "error", runErr)
	}

	if health != nil {
		health.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	return runErr
}
