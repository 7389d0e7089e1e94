package ws

import "testing"

func TestRouteKey(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		key     string
		ok      bool
	}{
		{"resolved event", `{"type":"bet_resolved","bet_id":42,"winner":"0xabc"}`, "42", true},
		{"zero id is a valid bet", `{"type":"bet_created","bet_id":0}`, "0", true},
		{"missing bet_id", `{"type":"bet_created"}`, "", false},
		{"not json", `plainly broken`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := routeKey([]byte(tt.payload))
			if ok != tt.ok || key != tt.key {
				t.Fatalf("expected (%q,%v), got (%q,%v)", tt.key, tt.ok, key, ok)
			}
		})
	}
}
