package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/internal/live-feed/ws"
	"github.com/radieske/verdict-engine/internal/shared/cache"
	"github.com/radieske/verdict-engine/internal/shared/config"
	"github.com/radieske/verdict-engine/internal/shared/logger"
	"github.com/radieske/verdict-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// permissive origin policy; the gateway fronts this in real deployments
	hub := ws.NewHub(func(r *http.Request) bool { return true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("live-feed-service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatal("ws server", zap.Error(err))
	}
}
