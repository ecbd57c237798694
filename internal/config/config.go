package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Required by the api and migrate binaries; the worker runs without a
	// database.
	PostgresURL    string `envconfig:"POSTGRES_URL"`
	MaxOpenConns   int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	OrderTopic   string   `envconfig:"ORDER_TOPIC" default:"order.placed"`

	// RestockOnCancel returns cancelled quantities to product stock. Off by
	// default: a cancelled order keeps its decrement.
	RestockOnCancel bool `envconfig:"RESTOCK_ON_CANCEL" default:"false"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort string `envconfig:"SMTP_PORT" default:"25"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"orders@storefront.local"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
