package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/ehr-booking/pkg/messaging/redis"
	"github.com/jwalitptl/ehr-booking/pkg/worker"
)

const EnvPrefix = "EHR"

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Booking       BookingConfig       `mapstructure:"booking"`
	Outbox        OutboxConfig        `mapstructure:"outbox"`
	IdentityCache IdentityCacheConfig `mapstructure:"identity_cache"`
	Log           LogConfig           `mapstructure:"log"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Store         string              `mapstructure:"store"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	HSTS            bool          `mapstructure:"hsts"`
	// HealthPort serves health and metrics for the outbox worker.
	HealthPort int `mapstructure:"health_port"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders a lib/pq URL connection string.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	URL             string        `mapstructure:"url"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	Issuer       string `mapstructure:"issuer"`
	ExpiryHours  int    `mapstructure:"expiry_hours"`
	CookieName   string `mapstructure:"cookie_name"`
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type BookingConfig struct {
	SlotLockEnabled           bool          `mapstructure:"slot_lock_enabled"`
	SlotLockTTL               time.Duration `mapstructure:"slot_lock_ttl"`
	WalkInPlaceholderPassword string        `mapstructure:"walk_in_placeholder_password"`
	DefaultWindowDays         int           `mapstructure:"default_window_days"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type IdentityCacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Cleanup time.Duration `mapstructure:"cleanup"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Secrets are read straight from the environment and win over the file.
type Secrets struct {
	JWTSecret        string `envconfig:"JWT_SECRET"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	RedisURL         string `envconfig:"REDIS_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.hsts", false)
	v.SetDefault("server.health_port", 8081)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ehr")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.breaker_failures", 5)
	v.SetDefault("redis.breaker_timeout", 30*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "ehr-booking")
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.cookie_name", "jwtToken")
	v.SetDefault("jwt.cookie_domain", "")
	v.SetDefault("jwt.cookie_secure", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("booking.slot_lock_enabled", false)
	v.SetDefault("booking.slot_lock_ttl", 5*time.Second)
	v.SetDefault("booking.walk_in_placeholder_password", "defaultPassword123!")
	v.SetDefault("booking.default_window_days", 30)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.max_retries", 5)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("identity_cache.ttl", time.Minute)
	v.SetDefault("identity_cache.cleanup", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.namespace", "ehr")

	v.SetDefault("store", StorePostgres)
}

// Load reads the optional .env file, then path (or config.yaml in . and
// ./config when path is empty), then EHR_* environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process(EnvPrefix, &secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	cfg.applySecrets(secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(s Secrets) {
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.DatabasePassword != "" {
		c.Database.Password = s.DatabasePassword
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (set EHR_JWT_SECRET)")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("jwt expiry_hours must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Store {
	case StorePostgres:
		if c.Database.Port <= 0 {
			return fmt.Errorf("invalid database port %d", c.Database.Port)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Booking.SlotLockEnabled && c.Redis.URL == "" {
		return errors.New("booking slot lock requires redis.url")
	}
	return nil
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:    c.BatchSize,
		PollInterval: c.PollInterval,
		MaxRetries:   c.MaxRetries,
	}
}

func (c *RedisConfig) ToClientConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *RedisConfig) ToBreakerConfig() redis.BreakerConfig {
	b := redis.DefaultBreakerConfig()
	if c.BreakerFailures > 0 {
		b.ConsecutiveFailures = c.BreakerFailures
	}
	if c.BreakerTimeout > 0 {
		b.OpenTimeout = c.BreakerTimeout
	}
	return b
}
