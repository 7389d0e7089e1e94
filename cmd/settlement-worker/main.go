package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	srepo "github.com/radieske/verdict-engine/internal/settlement/repo"
	"github.com/radieske/verdict-engine/internal/shared/cache"
	"github.com/radieske/verdict-engine/internal/shared/config"
	"github.com/radieske/verdict-engine/internal/shared/db"
	skafka "github.com/radieske/verdict-engine/internal/shared/kafka"
	"github.com/radieske/verdict-engine/internal/shared/logger"
	"github.com/radieske/verdict-engine/internal/shared/metrics"
	"github.com/radieske/verdict-engine/pkg/contracts/events"
)

var (
	processedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verdict_settlement_events_total",
		Help: "Lifecycle events consumed, by type.",
	}, []string{"type"})
	settledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_settlements_recorded_total",
		Help: "Terminal outcomes persisted to the settlements table.",
	})
	deadLetteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdict_settlement_dlq_total",
		Help: "Messages shunted to the DLQ.",
	})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Consumes the lifecycle topic; partition key is betId, so events per bet
	// arrive in commit order.
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetLifecycle, "settlement")
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicBetLifecycleDLQ != "" {
		dlqWriter = skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetLifecycleDLQ)
		defer dlqWriter.Close()
	}

	metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	repository := srepo.NewPostgres(pg)

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicBetLifecycle),
		zap.String("broadcast", cfg.RedisPubSubChannel),
	)

	ctx := context.Background()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := processOne(ctx, log, repository, rdb, cfg, msg.Value); err != nil {
			log.Error("process lifecycle event", zap.Error(err))
			deadLetter(ctx, log, dlqWriter, msg)
			continue
		}
	}
}

// processOne handles a single lifecycle message:
//  1. decodes the envelope
//  2. persists terminal outcomes (resolved/cancelled) idempotently
//  3. re-broadcasts the raw payload on Redis for the live feed
func processOne(ctx context.Context, log *zap.Logger, repository *srepo.Postgres, rdb *redis.Client, cfg config.Config, payload []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	processedTotal.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case events.TypeBetResolved:
		var e events.BetResolved
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		if err := repository.Insert(ctx, srepo.Settlement{
			BetID:     e.BetID,
			Outcome:   "RESOLVED",
			Winner:    e.Winner,
			AmountWei: e.PayoutWei,
			SettledAt: time.UnixMilli(e.TsUnixMs),
		}); err != nil {
			return err
		}
		settledTotal.Inc()
		log.Info("settlement recorded",
			zap.Uint64("betId", e.BetID),
			zap.String("winner", e.Winner),
			zap.Int64("payoutWei", e.PayoutWei),
		)

	case events.TypeBetCancelled:
		var e events.BetCancelled
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		if err := repository.Insert(ctx, srepo.Settlement{
			BetID:     e.BetID,
			Outcome:   "CANCELLED",
			AmountWei: e.RefundWei,
			SettledAt: time.UnixMilli(e.TsUnixMs),
		}); err != nil {
			return err
		}
		settledTotal.Inc()
	}

	// Every event feeds the live dashboards, terminal or not.
	return rdb.Publish(ctx, cfg.RedisPubSubChannel, payload).Err()
}

func deadLetter(ctx context.Context, log *zap.Logger, w *kafkago.Writer, msg kafkago.Message) {
	if w == nil {
		return
	}
	if err := w.WriteMessages(ctx, kafkago.Message{Key: msg.Key, Value: msg.Value, Time: time.Now()}); err != nil {
		log.Error("dlq write", zap.Error(err))
		return
	}
	deadLetteredTotal.Inc()
}
