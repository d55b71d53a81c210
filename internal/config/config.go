package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string        `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string        `env:"RABBITMQ_URL,required=true"`
	RedisURL          string        `env:"REDIS_URL,required=true"`
	RelayURL          string        `env:"RELAY_URL,required=true"`
	RelayAuthToken    string        `env:"RELAY_AUTH_TOKEN"`
	RelayTimeout      time.Duration `env:"RELAY_TIMEOUT,default=10s"`
	AppBaseURL        string        `env:"APP_BASE_URL,required=true"`
	BlobEndpoint      string        `env:"BLOB_ENDPOINT"`
	BlobAccessKey     string        `env:"BLOB_ACCESS_KEY"`
	BlobSecretKey     string        `env:"BLOB_SECRET_KEY"`
	BlobBucket        string        `env:"BLOB_BUCKET,default=images"`
	BlobUseSSL        bool          `env:"BLOB_USE_SSL,default=false"`
	BlobPublicURL     string        `env:"BLOB_PUBLIC_URL"`
	FanoutGuardTTL    time.Duration `env:"FANOUT_GUARD_TTL,default=24h"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY,default=2"`
	APIPort           int           `env:"API_PORT,default=8080"`
	WorkerMetricsPort int           `env:"WORKER_METRICS_PORT,default=9091"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	LogFormat         string        `env:"LOG_FORMAT,default=json"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values the env tags cannot express.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"RELAY_URL":    c.RelayURL,
		"APP_BASE_URL": c.AppBaseURL,
	} {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute url", name)
		}
	}
	if c.RelayTimeout <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT must be positive")
	}
	if c.FanoutGuardTTL <= 0 {
		return fmt.Errorf("FANOUT_GUARD_TTL must be positive")
	}
	if c.BlobEnabled() && strings.TrimSpace(c.BlobBucket) == "" {
		return fmt.Errorf("BLOB_BUCKET is required when BLOB_ENDPOINT is set")
	}
	return nil
}

// BlobEnabled reports whether image uploads are configured.
func (c *Config) BlobEnabled() bool {
	return strings.TrimSpace(c.BlobEndpoint) != ""
}
