package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	skafka "github.com/radieske/verdict-engine/internal/shared/kafka"
	"github.com/radieske/verdict-engine/pkg/contracts/events"
)

// KafkaPublisher implements engine.Notifier over a single lifecycle topic.
// Messages are keyed by betId, so one bet's events land on one partition in
// commit order.
type KafkaPublisher struct {
	Writer *kafkago.Writer
}

func NewKafkaPublisher(w *kafkago.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) BetCreated(ctx context.Context, e events.BetCreated) error {
	e.Type, e.TsUnixMs = events.TypeBetCreated, time.Now().UnixMilli()
	return p.send(ctx, e.BetID, e)
}

func (p *KafkaPublisher) BetAccepted(ctx context.Context, e events.BetAccepted) error {
	e.Type, e.TsUnixMs = events.TypeBetAccepted, time.Now().UnixMilli()
	return p.send(ctx, e.BetID, e)
}

func (p *KafkaPublisher) JudgeVoted(ctx context.Context, e events.JudgeVoted) error {
	e.Type, e.TsUnixMs = events.TypeJudgeVoted, time.Now().UnixMilli()
	return p.send(ctx, e.BetID, e)
}

func (p *KafkaPublisher) BetResolved(ctx context.Context, e events.BetResolved) error {
	e.Type, e.TsUnixMs = events.TypeBetResolved, time.Now().UnixMilli()
	return p.send(ctx, e.BetID, e)
}

func (p *KafkaPublisher) BetCancelled(ctx context.Context, e events.BetCancelled) error {
	e.Type, e.TsUnixMs = events.TypeBetCancelled, time.Now().UnixMilli()
	return p.send(ctx, e.BetID, e)
}

func (p *KafkaPublisher) send(ctx context.Context, betID uint64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.Writer, strconv.FormatUint(betID, 10), b)
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}
