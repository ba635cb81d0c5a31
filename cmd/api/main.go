package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	v1 "github.com/LabasniDAM/Labasni-Backend/cmd/api/router/v1"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/auth"
	cacheAdapter "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/cache/adapter"
	cacheport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/cache/port"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/database"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/logger"
	queueAdapter "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/queue/adapter"
	qport "github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/queue/port"
	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/realtime"
	chathttp "github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/presentation/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found or could not be loaded", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(connectCtx)
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil {
		logger.Log.Fatal("failed to configure token verifier", zap.Error(err))
	}

	// Redis-backed pieces are optional so the API can run without a broker
	// in development. Without Redis the queued ingestion path is disabled
	// and profile lookups hit the database every time.
	var cache cacheport.Cache
	var queueClient qport.Client
	var queueServer *queueAdapter.AsynqServer
	if os.Getenv("REDIS_URL") != "" {
		rc, err := cacheAdapter.NewRedisAdapter()
		if err != nil {
			logger.Warn("redis cache unavailable", zap.Error(err))
		} else {
			cache = rc
			defer rc.Close()
		}

		qc, err := queueAdapter.NewAsynqClientFromEnv()
		if err != nil {
			logger.Warn("queue client unavailable", zap.Error(err))
		} else {
			queueClient = qc
			defer qc.Close()
		}

		queueServer, err = queueAdapter.NewAsynqServer()
		if err != nil {
			logger.Warn("queue worker unavailable", zap.Error(err))
			queueServer = nil
		}
	} else {
		logger.Warn("REDIS_URL not set; queue and cache disabled")
	}

	registry := realtime.NewRegistry()
	defer registry.Close()

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	deps := chathttp.Deps{
		Pool:     pool,
		Cache:    cache,
		Queue:    queueClient,
		Registry: registry,
		Verifier: verifier,
	}
	if queueServer != nil {
		deps.Worker = queueServer
	}
	v1.RegisterRoutes(r, deps)

	// Task handlers are registered during route setup, so the worker starts
	// after the routes are mounted.
	if queueServer != nil {
		go func() {
			if err := queueServer.Run(ctx); err != nil {
				logger.Error("queue worker stopped", zap.Error(err))
			}
		}()
	}

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
