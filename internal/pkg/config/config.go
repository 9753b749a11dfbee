package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, search bounds, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Lock    LockConfig
	Cache   CacheConfig
	Payment PaymentConfig
	Booking BookingConfig
	CORS    CORSConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Address  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"50"`
}

type LockConfig struct {
	TTL time.Duration `envconfig:"LOCK_TTL" default:"10s"`
}

type CacheConfig struct {
	AvailabilityTTL time.Duration `envconfig:"CACHE_AVAILABILITY_TTL" default:"5m"`
}

type PaymentConfig struct {
	Timeout            time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"5s"`
	MaxAttempts        int           `envconfig:"PAYMENT_MAX_ATTEMPTS" default:"3"`
	InitialBackoff     time.Duration `envconfig:"PAYMENT_INITIAL_BACKOFF" default:"200ms"`
	MaxBackoff         time.Duration `envconfig:"PAYMENT_MAX_BACKOFF" default:"5s"`
	BreakerMaxFailures uint32        `envconfig:"PAYMENT_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenFor     time.Duration `envconfig:"PAYMENT_BREAKER_OPEN_FOR" default:"30s"`
}

type BookingConfig struct {
	CancellationNotice time.Duration `envconfig:"BOOKING_CANCELLATION_NOTICE" default:"24h"`
	AlternativeStep    time.Duration `envconfig:"BOOKING_ALTERNATIVE_STEP" default:"30m"`
	MaxAlternatives    int           `envconfig:"BOOKING_MAX_ALTERNATIVES" default:"5"`
	VersionRetries     int           `envconfig:"BOOKING_VERSION_RETRIES" default:"3"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Address: "localhost:16380",
		},
		Lock: LockConfig{
			TTL: 5 * time.Second,
		},
		Cache: CacheConfig{
			AvailabilityTTL: time.Minute,
		},
		Payment: PaymentConfig{
			Timeout:            time.Second,
			MaxAttempts:        2,
			InitialBackoff:     time.Millisecond,
			MaxBackoff:         5 * time.Millisecond,
			BreakerMaxFailures: 3,
			BreakerOpenFor:     time.Second,
		},
		Booking: BookingConfig{
			CancellationNotice: 24 * time.Hour,
			AlternativeStep:    30 * time.Minute,
			MaxAlternatives:    5,
			VersionRetries:     3,
		},
		Log: LogConfig{
			Level: "error",
		},
	}
}
