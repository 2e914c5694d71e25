// Package config carrega a configuração do serviço a partir de variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config agrupa os parâmetros de runtime do marketplace
type Config struct {
	ServiceName     string
	Port            string
	ShutdownTimeout time.Duration

	Database DatabaseConfig

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr       string
	ProductCacheTTL time.Duration

	KafkaBrokers       []string
	KafkaOrdersTopic   string
	OutboxPollInterval time.Duration

	OTLPEndpoint string

	ShippingFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DatabaseConfig contém as credenciais do PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int32
}

// DSN retorna a URL de conexão usada tanto pelo pgxpool quanto pelo lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load lê a configuração do ambiente aplicando os valores padrão
func Load() Config {
	return Config{
		ServiceName:     getEnv("SERVICE_NAME", "marketplace-api"),
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "root"),
			Password: getEnv("DATABASE_PASSWORD", "pass"),
			Name:     getEnv("DATABASE_NAME", "marketplace_db"),
			MaxConns: int32(getEnvInt("DATABASE_MAX_CONNS", 25)),
		},
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTTTL:             getEnvDuration("JWT_TTL", 7*24*time.Hour),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		ProductCacheTTL:    getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaOrdersTopic:   getEnv("KAFKA_ORDERS_TOPIC", "marketplace.orders"),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		ShippingFee:        getEnvDecimal("SHIPPING_FEE", decimal.RequireFromString("50.00")),
		TaxRate:            getEnvDecimal("TAX_RATE", decimal.RequireFromString("0.12")),
	}
}

// Validate verifica os parâmetros obrigatórios
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.ShippingFee.IsNegative() {
		errs = append(errs, errors.New("SHIPPING_FEE must not be negative"))
	}
	if c.TaxRate.IsNegative() {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration aceita o formato de time.ParseDuration ("15s", "168h")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
