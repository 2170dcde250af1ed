package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SOLTokenAddress - mint-адрес SOL, референсный актив для перевода
// PnL в валюту залога
const SOLTokenAddress = "So11111111111111111111111111111111111111112"

// Config содержит всю конфигурацию приложения
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Oracle  OracleConfig
	Watcher WatcherConfig
	Debug   DebugConfig
	Logging LoggingConfig
}

// ServerConfig - настройки операционного HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// StoreConfig - настройки доступа к стору позиций
type StoreConfig struct {
	URL            string // базовый URL REST API стора
	ServiceRoleKey string // сервисный ключ (apikey + bearer)
}

// OracleConfig - настройки клиента цен
type OracleConfig struct {
	BaseURL      string        // базовый URL оракула
	APIKey       string        // X-API-KEY
	Chain        string        // цепочка в query (solana)
	Timeout      time.Duration // таймаут одного HTTP запроса
	MaxRetries   int           // попыток на один токен
	RetryBackoff time.Duration // начальная задержка между попытками
	RatePerSec   float64       // лимит исходящих запросов (0 = без лимита)
}

// WatcherConfig - настройки цикла ликвидаций
type WatcherConfig struct {
	PollInterval  time.Duration // каденция тиков (от старта тика)
	Concurrency   int           // одновременных запросов цен
	ReferenceMint string        // адрес референсного актива (SOL)
}

// DebugConfig - basic auth для /debug/pprof
type DebugConfig struct {
	Username string
	Password string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения.
//
// Если задан ENV_FILE, сначала подгружается .env файл (значения из
// окружения имеют приоритет). Отсутствие файла - не ошибка: в
// контейнере конфиг приходит напрямую из окружения.
func Load() (*Config, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Store: StoreConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		},
		Oracle: OracleConfig{
			BaseURL:      getEnv("BIRDEYE_BASE_URL", "https://public-api.birdeye.so"),
			APIKey:       getEnv("BIRDEYE_API_KEY", ""),
			Chain:        getEnv("BIRDEYE_CHAIN", "solana"),
			Timeout:      getEnvAsSeconds("BIRDEYE_TIMEOUT_SECONDS", 8*time.Second),
			MaxRetries:   getEnvAsInt("PRICE_MAX_RETRIES", 3),
			RetryBackoff: getEnvAsDuration("PRICE_RETRY_BACKOFF", 1*time.Second),
			RatePerSec:   getEnvAsFloat("BIRDEYE_RATE_PER_SEC", 0),
		},
		Watcher: WatcherConfig{
			PollInterval:  getEnvAsSeconds("LIQUIDATION_POLL_SECONDS", 3*time.Second),
			Concurrency:   getEnvAsInt("BIRDEYE_CONCURRENCY", 6),
			ReferenceMint: getEnv("REFERENCE_TOKEN_ADDRESS", SOLTokenAddress),
		},
		Debug: DebugConfig{
			Username: getEnv("DEBUG_USERNAME", ""),
			Password: getEnv("DEBUG_PASSWORD", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация обязательных параметров
	if err := cfg.validateRequired(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRequired проверяет обязательные параметры
func (c *Config) validateRequired() error {
	if c.Store.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}

	if c.Store.ServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	if c.Oracle.APIKey == "" {
		return fmt.Errorf("BIRDEYE_API_KEY is required")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Watcher.PollInterval <= 0 {
		return fmt.Errorf("LIQUIDATION_POLL_SECONDS must be positive, got %v", c.Watcher.PollInterval)
	}

	if c.Watcher.Concurrency < 1 {
		return fmt.Errorf("BIRDEYE_CONCURRENCY must be at least 1, got %d", c.Watcher.Concurrency)
	}

	if c.Watcher.Concurrency > 64 {
		return fmt.Errorf("BIRDEYE_CONCURRENCY should not exceed 64, got %d", c.Watcher.Concurrency)
	}

	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("BIRDEYE_TIMEOUT_SECONDS must be positive, got %v", c.Oracle.Timeout)
	}

	if c.Oracle.MaxRetries < 1 {
		return fmt.Errorf("PRICE_MAX_RETRIES must be at least 1, got %d", c.Oracle.MaxRetries)
	}

	if c.Oracle.MaxRetries > 10 {
		return fmt.Errorf("PRICE_MAX_RETRIES should not exceed 10, got %d", c.Oracle.MaxRetries)
	}

	if c.Oracle.RetryBackoff <= 0 {
		return fmt.Errorf("PRICE_RETRY_BACKOFF must be positive, got %v", c.Oracle.RetryBackoff)
	}

	if c.Oracle.RatePerSec < 0 {
		return fmt.Errorf("BIRDEYE_RATE_PER_SEC cannot be negative, got %v", c.Oracle.RatePerSec)
	}

	if c.Watcher.ReferenceMint == "" {
		return fmt.Errorf("REFERENCE_TOKEN_ADDRESS cannot be empty")
	}

	return nil
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSeconds читает переменную как количество секунд (целое или дробное)
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return time.Duration(value * float64(time.Second))
}
