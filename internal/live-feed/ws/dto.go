package ws

import "encoding/json"

// ClientMsg is what dashboard clients send over the socket.
type ClientMsg struct {
	Type  string `json:"type"`  // "subscribe" | "unsubscribe" | "ping"
	BetID string `json:"betId"` // decimal bet id as string
}

// routeKey extracts the betId a lifecycle payload belongs to. Payloads come
// straight off the Redis channel as published by the settlement worker.
func routeKey(payload []byte) (string, bool) {
	var env struct {
		BetID *uint64 `json:"bet_id"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.BetID == nil {
		return "", false
	}
	return formatBetID(*env.BetID), true
}
