package app

import (
	"os"
	"strings"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	MetricsAddr    string
	KafkaBrokers   string
	KafkaGroupID   string
	PostgresDSN    string
	CatalogBaseURL string
}

// DefaultConfig возвращает базовые значения: метрики на :9090, Kafka и
// Postgres не настроены (in-memory хранилище и mock каталога).
func DefaultConfig() Config {
	return Config{
		MetricsAddr:  ":9090",
		KafkaGroupID: "beer-order-service",
	}
}

// ConfigFromEnv строит конфигурацию из переменных окружения BOMS_*,
// начиная с дефолтов.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := strings.TrimSpace(os.Getenv("BOMS_METRICS_ADDR")); v != "" {
		cfg.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("BOMS_KAFKA_BROKERS")); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := strings.TrimSpace(os.Getenv("BOMS_KAFKA_GROUP_ID")); v != "" {
		cfg.KafkaGroupID = v
	}
	if v := strings.TrimSpace(os.Getenv("BOMS_POSTGRES_DSN")); v != "" {
		cfg.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("BOMS_CATALOG_URL")); v != "" {
		cfg.CatalogBaseURL = v
	}
	return cfg
}

// BrokerList разбивает список брокеров по запятым.
func (c Config) BrokerList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
