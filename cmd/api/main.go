package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	v1 "go-movement/cmd/api/router/v1"
	cacheAdapter "go-movement/internal/infrastructure/cache/adapter"
	cacheport "go-movement/internal/infrastructure/cache/port"
	"go-movement/internal/infrastructure/config"
	"go-movement/internal/infrastructure/database"
	"go-movement/internal/infrastructure/identity"
	queueAdapter "go-movement/internal/infrastructure/queue/adapter"
	"go-movement/internal/infrastructure/realtime"
	"go-movement/internal/infrastructure/relay"
	liveTask "go-movement/internal/pkg/live/application/task"
	repoAdapter "go-movement/internal/pkg/live/persistence/repository/adapter"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	registry := realtime.NewRoomRegistry(log)

	// Redis backs the identity cache and the cross-node broadcast relay.
	// Both are optional: a single node runs fine without them.
	var broadcaster *realtime.Broadcaster
	var cache *cacheAdapter.RedisCache
	if cfg.RedisURL != "" {
		redisClient, err := cacheAdapter.NewClient(connectCtx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		cache = cacheAdapter.NewRedisCache(redisClient)
		broadcaster = realtime.NewBroadcaster(registry, relay.NewRedisRelay(redisClient, log), cfg.NodeID, log)
	} else {
		broadcaster = realtime.NewBroadcaster(registry, nil, cfg.NodeID, log)
	}
	go broadcaster.Run(ctx)

	// Avoid a typed-nil cache behind the interface when Redis is not configured.
	var gatewayCache cacheport.Cache
	if cache != nil {
		gatewayCache = cache
	}
	gateway := identity.NewGateway(cfg.SessionSecret, repoAdapter.NewPgUserRepository(pool), gatewayCache, log)

	// Worker consuming the publish pipeline; mutation services enqueue after
	// each persisted change, this side fans out.
	if cfg.RedisURL != "" {
		worker, err := queueAdapter.NewAsynqServer(cfg.RedisURL, cfg.AsynqConcurrency, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build worker")
		}
		liveTask.RegisterPublishTasks(worker, broadcaster)
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("worker stopped")
			}
		}()
	}

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, pool, gateway, registry)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Str("node", cfg.NodeID).Msg("live service listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
