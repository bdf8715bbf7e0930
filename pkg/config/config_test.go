package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
market:
  base_url: http://localhost:9100
  symbol: "^NSEI"
models:
  service_url: http://localhost:9200
clickhouse:
  host: localhost
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Market.Interval != 15*time.Minute {
		t.Fatalf("interval default: %v", cfg.Market.Interval)
	}
	if cfg.Market.Lookback != 30*24*time.Hour {
		t.Fatalf("lookback default: %v", cfg.Market.Lookback)
	}
	if cfg.Pipeline.TickInterval != cfg.Market.Interval {
		t.Fatalf("tick interval should default to bar interval")
	}
	if cfg.Calendar.Timezone != "Asia/Kolkata" || cfg.Calendar.Open != "09:30" || cfg.Calendar.Close != "15:30" {
		t.Fatalf("calendar defaults: %+v", cfg.Calendar)
	}
	if cfg.Decision.BuyProbability != 0.65 || cfg.Decision.SellProbability != 0.35 {
		t.Fatalf("probability defaults: %+v", cfg.Decision)
	}
	if cfg.Decision.VolLow != 15 || cfg.Decision.VolHigh != 30 {
		t.Fatalf("volatility defaults: %+v", cfg.Decision)
	}
	if cfg.Decision.BlendWeight != 0.7 || cfg.Decision.BlendPrior != 0.53 {
		t.Fatalf("blend defaults: %+v", cfg.Decision)
	}
	if cfg.Heartbeat.Interval != 30*time.Second {
		t.Fatalf("heartbeat default: %v", cfg.Heartbeat.Interval)
	}
}

func TestLoadValidates(t *testing.T) {
	cases := map[string]string{
		"missing symbol": `
environment: test
market:
  base_url: http://localhost:9100
models:
  service_url: http://localhost:9200
clickhouse:
  host: localhost
`,
		"inverted probabilities": minimalYAML + `
decision:
  buy_probability: 0.3
  sell_probability: 0.6
`,
		"kafka enabled without brokers": minimalYAML + `
kafka:
  enabled: true
`,
	}
	for name, yaml := range cases {
		if _, err := Load(writeConfig(t, yaml)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_SYMBOL", "^BSESN")
	t.Setenv("MODEL_SERVICE_URL", "http://models:9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Market.Symbol != "^BSESN" {
		t.Fatalf("symbol override: %s", cfg.Market.Symbol)
	}
	if cfg.Models.ServiceURL != "http://models:9000" {
		t.Fatalf("model url override: %s", cfg.Models.ServiceURL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("broker override: %v", cfg.Kafka.Brokers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
