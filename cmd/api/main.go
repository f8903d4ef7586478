package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"network20-backend/config"
	_ "network20-backend/docs" // Important for Swagger
	"network20-backend/internal/delivery/http/middleware"
	v1 "network20-backend/internal/delivery/http/v1"
	"network20-backend/internal/domain"
	"network20-backend/internal/repository/local"
	remote "network20-backend/internal/repository/supabase"
	"network20-backend/internal/usecase"
	"network20-backend/pkg/auth"
	"network20-backend/pkg/kvstore"
	"network20-backend/pkg/logger"
	"network20-backend/pkg/redis"
	"network20-backend/pkg/supabase"
	"network20-backend/pkg/validation"

	goredis "github.com/redis/go-redis/v9"
)

// @title           Network20 API
// @version         1.0
// @description     Profiles and job listings for the Network20 app, stored locally or on Supabase.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting network20 backend", "port", cfg.Port, "remote", cfg.RemoteConfigured(), "local_store", cfg.LocalStoreDriver)

	ctx := context.Background()

	// 3. Redis is optional: it backs the redis store driver and shared rate limits
	var redisClient *goredis.Client
	if cfg.UpstashRedisURL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
		if err != nil {
			if cfg.LocalStoreDriver == config.StoreDriverRedis {
				logger.Log.Error("Failed to connect to redis", "error", err)
				os.Exit(1)
			}
			logger.Log.Warn("Redis unavailable, rate limits stay in memory", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 4. Setup device-local store
	kv, err := openLocalStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Log.Error("Failed to open local store", "driver", cfg.LocalStoreDriver, "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	// 5. Setup Repositories and UseCases
	validate := validation.New()
	storeCfg := usecase.NewStoreConfig(cfg)
	// Remote identity comes from each request's bearer token
	storeCfg.SessionScoped = true
	localRepo := local.NewProfileRepository(kv, local.WithSerializedWrites())

	probes := map[string]usecase.HealthProbe{
		"local_store": func(ctx context.Context) error {
			_, _, err := kv.Get(ctx, local.CurrentUserKey)
			return err
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) }
	}

	var (
		remoteRepo domain.RemoteProfileRepository
		jobRepo    domain.JobRepository
		authSvc    domain.AuthService
		verifier   middleware.TokenVerifier
	)
	if storeCfg.Remote {
		client, err := supabase.New(supabase.Config{
			URL:         cfg.SupabaseUrl,
			Key:         cfg.SupabaseKey,
			Timeout:     cfg.SupabaseTimeout,
			ReadRetries: uint64(cfg.SupabaseRetries),
		})
		if err != nil {
			logger.Log.Error("Failed to create supabase client", "error", err)
			os.Exit(1)
		}
		// Each request carries its own session from the bearer token
		client.Auth.SetStateless(true)
		defer client.Auth.Close()

		remoteRepo = remote.NewProfileRepository(client)
		jobRepo = remote.NewJobRepository(client)
		authSvc = remote.NewAuthService(client, cfg.FrontendURL)
		verifier = auth.NewVerifier(cfg.SupabaseJWTSecret, auth.NewProvider(auth.SupabaseJWKSURL(cfg.SupabaseUrl)))
		probes["supabase"] = client.Ping
	}

	store, err := usecase.NewProfileStore(storeCfg, localRepo, remoteRepo, usecase.NewAuthUsecase(authSvc), validate)
	if err != nil {
		logger.Log.Error("Failed to build profile store", "error", err)
		os.Exit(1)
	}
	jobUC := usecase.NewJobUsecase(storeCfg, jobRepo, validate)
	healthUC := usecase.NewHealthUsecase(store.Mode(), probes)

	// 6. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		Store:       store,
		JobUC:       jobUC,
		HealthUC:    healthUC,
		Verifier:    verifier,
		AuthLimiter: middleware.NewRateLimiter(middleware.AuthRateLimitConfig(), redisClient),
		Config:      cfg,
	})

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

func openLocalStore(ctx context.Context, cfg *config.Config, redisClient *goredis.Client) (kvstore.Store, error) {
	switch cfg.LocalStoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("Using the memory store, local profiles are lost on restart")
		return kvstore.NewMemory(), nil
	case config.StoreDriverSQLite:
		if err := os.MkdirAll(cfg.LocalStorePath, 0o755); err != nil {
			return nil, err
		}
		return kvstore.NewSQLite(ctx, filepath.Join(cfg.LocalStorePath, "network20.db"))
	case config.StoreDriverRedis:
		if redisClient == nil {
			return nil, errors.New("redis store selected but no redis connection")
		}
		return kvstore.NewRedis(redisClient, "network20:"), nil
	case config.StoreDriverFile:
		return kvstore.NewFile(cfg.LocalStorePath)
	default:
		return nil, fmt.Errorf("unknown local store driver %q", cfg.LocalStoreDriver)
	}
}
