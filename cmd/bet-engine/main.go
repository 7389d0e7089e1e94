package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/verdict-engine/internal/bet-engine/custody"
	ehttp "github.com/radieske/verdict-engine/internal/bet-engine/http"
	kpub "github.com/radieske/verdict-engine/internal/bet-engine/producer"
	"github.com/radieske/verdict-engine/internal/bet-engine/repo"
	"github.com/radieske/verdict-engine/internal/engine"
	"github.com/radieske/verdict-engine/internal/shared/config"
	"github.com/radieske/verdict-engine/internal/shared/db"
	skafka "github.com/radieske/verdict-engine/internal/shared/kafka"
	"github.com/radieske/verdict-engine/internal/shared/logger"
	"github.com/radieske/verdict-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer (topic bet_lifecycle)
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetLifecycle)
	defer writer.Close()

	// deps
	store := repo.NewPostgres(pg)
	wcli := custody.New(cfg.WalletURL) // wallet-service
	publ := kpub.NewKafkaPublisher(writer)
	led := engine.NewLedger(log, store, wcli, publ)

	// public HTTP
	api := ehttp.NewServer(log, led)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("bet-engine listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
