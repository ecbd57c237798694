package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.MigrationsPath != "file://migrations" {
		t.Errorf("expected default migrations path file://migrations, got %q", cfg.MigrationsPath)
	}
	if cfg.OrderTopic != "order.placed" {
		t.Errorf("expected default order topic order.placed, got %q", cfg.OrderTopic)
	}
	if cfg.MaxOpenConns != 25 {
		t.Errorf("expected default max open conns 25, got %d", cfg.MaxOpenConns)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Errorf("expected default token ttl 168h, got %s", cfg.TokenTTL)
	}
	if cfg.RestockOnCancel {
		t.Error("expected restock on cancel to default to off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIGRATIONS_PATH", "file:///srv/storefront/migrations")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("RESTOCK_ON_CANCEL", "true")
	t.Setenv("TOKEN_TTL", "24h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected overrides to load, got %v", err)
	}

	if cfg.MigrationsPath != "file:///srv/storefront/migrations" {
		t.Errorf("unexpected migrations path %q", cfg.MigrationsPath)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "kafka-1:9092" {
		t.Errorf("expected brokers split on commas, got %v", cfg.KafkaBrokers)
	}
	if !cfg.RestockOnCancel {
		t.Error("expected restock on cancel to be enabled")
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected token ttl 24h, got %s", cfg.TokenTTL)
	}
}
