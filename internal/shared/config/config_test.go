package config

import "testing"

func TestLoadDefaultsPerService(t *testing.T) {
	tests := []struct {
		service     string
		httpPort    string
		metricsPort string
	}{
		{"bet-engine", "8080", "9091"},
		{"wallet-service", "8082", "9092"},
		{"settlement-worker", "", "9093"},
		{"live-feed-service", "8084", "9094"},
		{"", "8080", "9090"},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			t.Setenv("SERVICE_NAME", tt.service)

			cfg := Load()
			if cfg.HTTPPort != tt.httpPort {
				t.Fatalf("expected http port %q, got %q", tt.httpPort, cfg.HTTPPort)
			}
			if cfg.MetricsPort != tt.metricsPort {
				t.Fatalf("expected metrics port %q, got %q", tt.metricsPort, cfg.MetricsPort)
			}
			if cfg.TopicBetLifecycle != "bet_lifecycle" {
				t.Fatalf("unexpected lifecycle topic %q", cfg.TopicBetLifecycle)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "bet-engine")
	t.Setenv("HTTP_PORT_ENGINE", "18080")
	t.Setenv("KAFKA_TOPIC_BET_LIFECYCLE", "bet_lifecycle_test")
	t.Setenv("WALLET_URL", "http://wallet:9000")

	cfg := Load()
	if cfg.HTTPPort != "18080" {
		t.Fatalf("override ignored, got %q", cfg.HTTPPort)
	}
	if cfg.TopicBetLifecycle != "bet_lifecycle_test" {
		t.Fatalf("override ignored, got %q", cfg.TopicBetLifecycle)
	}
	if cfg.WalletURL != "http://wallet:9000" {
		t.Fatalf("override ignored, got %q", cfg.WalletURL)
	}
}
