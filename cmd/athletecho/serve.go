package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/abhishek-bajpai1/athletecho/docs"
	"github.com/abhishek-bajpai1/athletecho/internal/config"
	"github.com/abhishek-bajpai1/athletecho/internal/database"
	"github.com/abhishek-bajpai1/athletecho/internal/gateway"
	"github.com/abhishek-bajpai1/athletecho/internal/handler"
	"github.com/abhishek-bajpai1/athletecho/internal/health"
	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	natsclient "github.com/abhishek-bajpai1/athletecho/internal/nats"
	"github.com/abhishek-bajpai1/athletecho/internal/oauth"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	"github.com/abhishek-bajpai1/athletecho/internal/repository"
	"github.com/abhishek-bajpai1/athletecho/internal/router"
	"github.com/abhishek-bajpai1/athletecho/internal/service"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	"github.com/abhishek-bajpai1/athletecho/internal/workerpool"
	"github.com/abhishek-bajpai1/athletecho/pkg/jwt"
	"github.com/abhishek-bajpai1/athletecho/pkg/snowflake"
)

const shutdownTimeout = 10 * time.Second

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr(), err)
	}
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())

	m := metrics.New(prometheus.DefaultRegisterer)

	pool := workerpool.New(cfg.Realtime.Workers, cfg.Realtime.QueueSize, logger)
	defer pool.Shutdown()
	hub := realtime.NewHub(pool, m, logger)

	// Change events go through NATS when it is reachable so every instance
	// refreshes its subscriptions. Without it the hub notifies itself.
	var notifier realtime.Notifier = hub
	natsConn, err := connectNATS(cfg, logger)
	if err != nil {
		logger.Warn("NATS unavailable, change events stay local", "url", cfg.NATS.URL, "error", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
		subject := cfg.NATS.SubjectPrefix
		notifier = natsclient.NewChangePublisher(natsConn.Conn(), subject, fmt.Sprintf("%s-%d", cfg.App.Name, cfg.App.NodeID))
		subscriber := natsclient.NewChangeSubscriber(natsConn.Conn(), subject, hub, m)
		if err := subscriber.Start(); err != nil {
			return fmt.Errorf("subscribe change events: %w", err)
		}
		defer subscriber.Stop()
	}

	jwtService := jwt.NewService(cfg.JWT.SecretKey, cfg.JWT.AccessExpire, cfg.JWT.RefreshExpire)
	sfNode, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		return fmt.Errorf("create snowflake node: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	postRepo := repository.NewPostRepository(db)
	presenceRepo := repository.NewPresenceRepository(redisClient)
	stateRepo := repository.NewOAuthStateRepository(redisClient)
	tokenRepo := repository.NewTokenRepository(redisClient)

	var images service.ImageStore
	store, err := storage.NewS3Store(ctx, cfg.Storage)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Warn("Image uploads disabled, no storage bucket configured")
	case err != nil:
		return fmt.Errorf("create image store: %w", err)
	default:
		images = store
	}

	var provider service.IdentityProvider
	google, err := oauth.NewGoogleProvider(cfg.OAuth, oauth.GoogleEndpoints)
	switch {
	case errors.Is(err, oauth.ErrNotConfigured):
		logger.Warn("Google sign-in disabled, no client id configured")
	case err != nil:
		return fmt.Errorf("create google provider: %w", err)
	default:
		provider = google
	}

	// Services
	userService := service.NewUserService(userRepo, presenceRepo, images, hub, notifier, m)
	authService := service.NewAuthService(provider, stateRepo, tokenRepo, userService, jwtService, cfg.OAuth.StateTTL)
	connectionService := service.NewConnectionService(connectionRepo, userRepo, hub, notifier, m)
	messagingService := service.NewMessagingService(conversationRepo, userRepo, hub, notifier, sfNode, m)
	feedService := service.NewFeedService(postRepo, userRepo, images, hub, notifier, sfNode, cfg.Feed.RecentLimit, m)
	coachingService, err := service.LoadCoachingService(cfg.Coaching.CatalogPath)
	if err != nil {
		return fmt.Errorf("load coaching catalog: %w", err)
	}

	// Gateway
	manager := gateway.NewManager()
	gw := gateway.NewServer(gateway.Services{
		Connections: connectionService,
		Messaging:   messagingService,
		Feed:        feedService,
		Users:       userService,
	}, manager, cfg.Gateway, cfg.CORS.AllowedOrigins, m, logger)
	heartbeat := gateway.NewHeartbeatChecker(manager, cfg.Gateway.HeartbeatTimeout, cfg.Gateway.HeartbeatInterval, logger, nil)
	go heartbeat.Start(ctx)

	var nc *nats.Conn
	if natsConn != nil {
		nc = natsConn.Conn()
	}
	checker := health.NewChecker(db, redisClient, nc)

	r := router.SetupRouter(cfg, authService, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Connection:   handler.NewConnectionHandler(connectionService),
		Conversation: handler.NewConversationHandler(messagingService),
		Post:         handler.NewPostHandler(feedService),
		Coaching:     handler.NewCoachingHandler(coachingService),
		Gateway:      gw,
	}, router.Ops{
		Health:  checker,
		Metrics: promhttp.Handler(),
	}, m, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("API server started", "addr", srv.Addr, "mode", cfg.App.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	var healthSrv *http.Server
	if cfg.App.HealthPort > 0 && cfg.App.HealthPort != cfg.App.Port {
		mux := http.NewServeMux()
		mux.Handle("/health", checker)
		mux.Handle("/metrics", promhttp.Handler())
		healthSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Health check server started", "addr", healthSrv.Addr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("health server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case runErr = <-errCh:
		logger.Error("Server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked sockets are not tracked by http.Server.
	gw.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("API server shutdown", "error", err)
	}
	if healthSrv != nil {
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Health server shutdown", "error", err)
		}
	}
	logger.Info("Server stopped")
	return runErr
}

func connectNATS(cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}
	client, err := natsclient.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	return client, nil
}
