package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BROKER_KIND", "")
	t.Setenv("GOOGLE_MAPS_API_KEY", "")

	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Broker.Kind != "log" {
		t.Errorf("expected log broker by default, got %s", cfg.Broker.Kind)
	}
	if cfg.Maps.APIKey != "" || cfg.Maps.Timeout != 3*time.Second {
		t.Errorf("unexpected maps config: %+v", cfg.Maps)
	}
	if cfg.Matching.DefaultRadiusKm != 5 {
		t.Errorf("expected 5km radius, got %v", cfg.Matching.DefaultRadiusKm)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BROKER_KIND", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("MAPS_TIMEOUT", "750ms")
	t.Setenv("MATCHING_RADIUS_KM", "12.5")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	if cfg.Broker.Kind != "kafka" {
		t.Errorf("expected kind to be lower-cased, got %s", cfg.Broker.Kind)
	}
	if want := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(cfg.Broker.KafkaBrokers, want) {
		t.Errorf("expected brokers %v, got %v", want, cfg.Broker.KafkaBrokers)
	}
	if cfg.Maps.Timeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.Maps.Timeout)
	}
	if cfg.Matching.DefaultRadiusKm != 12.5 {
		t.Errorf("expected 12.5, got %v", cfg.Matching.DefaultRadiusKm)
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Redis.DB)
	}
}

func TestGetListEnv_EmptyFallsBack(t *testing.T) {
	t.Setenv("CORS_ALLOW_ORIGINS", " , ")

	if got := getListEnv("CORS_ALLOW_ORIGINS", []string{"*"}); !reflect.DeepEqual(got, []string{"*"}) {
		t.Errorf("expected default, got %v", got)
	}
}
