package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config описывает настройки запуска сервиса. Значения читаются из
// окружения на старте; пустой список брокеров отключает Kafka.
type Config struct {
	HTTPAddr    string `env:"ATELIER_HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"ATELIER_METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"ATELIER_LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"ATELIER_STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath    string `env:"ATELIER_SQLITE_PATH" envDefault:"atelier.db"`
	PostgresDSN   string `env:"ATELIER_POSTGRES_DSN"`

	KafkaBrokers []string `env:"ATELIER_KAFKA_BROKERS" envSeparator:","`
	KafkaGroupID string   `env:"ATELIER_KAFKA_GROUP_ID" envDefault:"atelier-tracker"`
}

// LoadConfig читает конфигурацию из переменных окружения.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite storage requires ATELIER_SQLITE_PATH")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres storage requires ATELIER_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	return nil
}

// KafkaEnabled сообщает, настроена ли интеграция с Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
