package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Environment       string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	StorageDriver     string        `mapstructure:"STORAGE_DRIVER"`
	DBDSN             string        `mapstructure:"DB_DSN"`
	TelegramToken     string        `mapstructure:"TELEGRAM_TOKEN"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisChannel      string        `mapstructure:"REDIS_CHANNEL"`
	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`

	// EnvFileLoaded true, если переменные были прочитаны из env-файла
	EnvFileLoaded bool `mapstructure:"-"`
}

var defaults = map[string]any{
	"ENV":                "development",
	"LOG_LEVEL":          "",
	"STORAGE_DRIVER":     DriverPostgres,
	"DB_DSN":             "",
	"TELEGRAM_TOKEN":     "",
	"REDIS_ADDR":         "",
	"REDIS_CHANNEL":      "tutor_market.bookings",
	"RECONCILE_INTERVAL": "1h",
}

// Load читает env-файл (если он есть), затем переменные окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(envFile string) (*Config, error) {
	loaded := false
	if envFile != "" {
		err := godotenv.Load(envFile)
		switch {
		case err == nil:
			loaded = true
		case errors.Is(err, fs.ErrNotExist):
			// файла нет, работаем только с окружением
		default:
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.EnvFileLoaded = loaded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля для выбранного хранилища
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for storage driver %q", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", c.StorageDriver, DriverPostgres, DriverMemory)
	}

	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive, got %s", c.ReconcileInterval)
	}
	if c.RedisAddr != "" && c.RedisChannel == "" {
		return fmt.Errorf("REDIS_CHANNEL is required when REDIS_ADDR is set")
	}
	return nil
}

func (c *Config) BotEnabled() bool        { return c.TelegramToken != "" }
func (c *Config) PublishingEnabled() bool { return c.RedisAddr != "" }
