package main

import (
	"fmt"
	"os"
	"time"

	"matholymp/internal/common/cache"
	"matholymp/internal/common/db"
	commonmw "matholymp/internal/common/http/middleware"
	"matholymp/internal/common/mq"
	"matholymp/internal/common/storage"
	"matholymp/internal/registration/controller"
	"matholymp/pkg/utils/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultTokenTTL       = 12 * time.Hour
	defaultTokenIssuer    = "matholymp-registration"
	defaultLoginFailTTL   = 15 * time.Minute
	defaultLoginFailLimit = 5

	defaultMetricsNamespace = "matholymp"
	defaultConsumerGroup    = "registration-service"
	defaultPublishMaxWait   = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string                `yaml:"addr"`
	ReadTimeout  time.Duration         `yaml:"readTimeout"`
	WriteTimeout time.Duration         `yaml:"writeTimeout"`
	IdleTimeout  time.Duration         `yaml:"idleTimeout"`
	CORS         commonmw.CORSConfig   `yaml:"cors"`
	RateLimits   controller.RateLimits `yaml:"rateLimits"`
	// TrustedProxies lists the proxy networks whose X-Forwarded-For is
	// believed. Empty means the peer address is the client.
	TrustedProxies []string `yaml:"trustedProxies"`
}

// AuthConfig holds login and token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwtSecret"`
	Issuer         string        `yaml:"issuer"`
	TokenTTL       time.Duration `yaml:"tokenTTL"`
	LoginFailTTL   time.Duration `yaml:"loginFailTTL"`
	LoginFailLimit int           `yaml:"loginFailLimit"`
}

// EventsConfig controls the change-event topic. Without brokers events
// stay inside the process.
type EventsConfig struct {
	Kafka          mq.KafkaConfig `yaml:"kafka"`
	ConsumerGroup  string         `yaml:"consumerGroup"`
	PublishMaxWait time.Duration  `yaml:"publishMaxWait"`
}

// InitConfig is used by -init to create the registration data.
type InitConfig struct {
	AdminPassword string `yaml:"adminPassword"`
	AdminEmail    string `yaml:"adminEmail"`
	// StaticSiteDir, when set, supplies the PREVIOUS languages.
	StaticSiteDir string `yaml:"staticSiteDir"`
}

// CacheConfig holds the TTLs of cached documents and role locks.
type CacheConfig struct {
	Prefix        string        `yaml:"prefix"`
	ScoreboardTTL time.Duration `yaml:"scoreboardTTL"`
	RoleLockTTL   time.Duration `yaml:"roleLockTTL"`
}

// AppConfig holds the registration-service configuration.
type AppConfig struct {
	Server ServerConfig  `yaml:"server"`
	Logger logger.Config `yaml:"logger"`

	// EventConfig is the path of the event INI file.
	EventConfig string `yaml:"eventConfig"`

	Database db.Config           `yaml:"database"`
	Redis    cache.RedisConfig   `yaml:"redis"`
	MinIO    storage.MinIOConfig `yaml:"minio"`
	Events   EventsConfig        `yaml:"events"`
	Auth     AuthConfig          `yaml:"auth"`
	Cache    CacheConfig         `yaml:"cache"`
	Init     InitConfig          `yaml:"init"`

	MetricsNamespace string `yaml:"metricsNamespace"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	// Secrets are usually kept out of the file and referenced as ${VAR}.
	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadDotEnv loads .env from the working directory when it exists.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.EventConfig == "" {
		return nil, fmt.Errorf("eventConfig is required")
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwtSecret is required")
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = string(db.MySQL)
	}
	applyRedisDefaults(&cfg.Redis)

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = defaultTokenIssuer
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = defaultTokenTTL
	}
	if cfg.Auth.LoginFailTTL == 0 {
		cfg.Auth.LoginFailTTL = defaultLoginFailTTL
	}
	if cfg.Auth.LoginFailLimit <= 0 {
		cfg.Auth.LoginFailLimit = defaultLoginFailLimit
	}

	if cfg.Events.ConsumerGroup == "" {
		cfg.Events.ConsumerGroup = defaultConsumerGroup
	}
	if cfg.Events.PublishMaxWait == 0 {
		cfg.Events.PublishMaxWait = defaultPublishMaxWait
	}
	if cfg.MetricsNamespace == "" {
		cfg.MetricsNamespace = defaultMetricsNamespace
	}
	return &cfg, nil
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	if cfg == nil {
		return
	}
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
}
