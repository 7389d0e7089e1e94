package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber listens on the lifecycle broadcast channel and fans
// every payload out to the WebSocket subscribers of that bet. Payloads that
// do not carry a bet_id are dropped.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				betID, ok := routeKey([]byte(msg.Payload))
				if !ok {
					log.Warn("unroutable payload on broadcast channel", zap.String("payload", msg.Payload))
					continue
				}
				hub.Broadcast(betID, []byte(msg.Payload))
			}
		}
	}()
}
