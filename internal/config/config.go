package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"payplan"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Storage struct {
		// Backend selects the persistence medium: local, api or hosted.
		Backend string `envconfig:"STORAGE_BACKEND" default:"local"`
	}

	Local struct {
		Path          string `envconfig:"LOCAL_DB_PATH" default:"payplan.db"`
		MaxValueBytes int    `envconfig:"LOCAL_MAX_VALUE_BYTES" default:"1048576"`
	}

	API struct {
		BaseURL        string        `envconfig:"API_BASE_URL"`
		Timeout        time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
		MaxRetries     int           `envconfig:"API_MAX_RETRIES" default:"3"`
		RetryBaseDelay time.Duration `envconfig:"API_RETRY_BASE_DELAY" default:"500ms"`
	}

	DB struct {
		Host            string        `envconfig:"DB_HOST" default:"localhost"`
		Port            int           `envconfig:"DB_PORT" default:"5432"`
		User            string        `envconfig:"DB_USER" default:"postgres"`
		Password        string        `envconfig:"DB_PASSWORD" default:""`
		Name            string        `envconfig:"DB_NAME" default:"payplan"`
		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Redis struct {
		Addr string        `envconfig:"REDIS_ADDR"`
		TTL  time.Duration `envconfig:"REDIS_TOTALS_TTL" default:"10m"`
	}

	Sync struct {
		QueueMax   int `envconfig:"SYNC_QUEUE_MAX" default:"100"`
		MaxRetries int `envconfig:"SYNC_MAX_RETRIES" default:"3"`
	}

	Plans struct {
		Max int `envconfig:"MAX_PLANS" default:"20"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
