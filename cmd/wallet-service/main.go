package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/internal/shared/config"
	"github.com/radieske/verdict-engine/internal/shared/db"
	"github.com/radieske/verdict-engine/internal/shared/logger"
	"github.com/radieske/verdict-engine/internal/shared/metrics"
	whttp "github.com/radieske/verdict-engine/internal/wallet-service/http"
	"github.com/radieske/verdict-engine/internal/wallet-service/repo"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	repository := repo.NewPostgres(pg)
	api := whttp.NewServer(log, repository)

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("wallet-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
