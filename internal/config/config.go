package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	DB        DatabaseConfig
	App       AppConfig
	Logger    LoggerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds configuration for the database and its connection pool
type DatabaseConfig struct {
	Driver          string `mapstructure:"DB_DRIVER" validate:"oneof=postgres mysql sqlite"`
	URL             string `mapstructure:"DB_URL"`
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT" validate:"omitempty,numeric"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME" validate:"required_without=URL"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS" validate:"min=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME" validate:"min=0"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_TIME" validate:"min=0"`
	AutoMigrate     bool   `mapstructure:"DB_AUTO_MIGRATE"`
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	Env                    string `mapstructure:"APP_ENV"`
	HTTPPort               string `mapstructure:"HTTP_PORT" validate:"required,numeric"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" validate:"min=1"`
	WelcomeMessage         string `mapstructure:"WELCOME_MESSAGE"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS" validate:"min=0"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	DBLevel          string  `mapstructure:"LOG_DB_LEVEL" validate:"omitempty,oneof=silent error warn info"`
	DBHideParams     bool    `mapstructure:"LOG_DB_HIDE_PARAMS"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// RedisConfig holds configuration for the optional Redis backend
type RedisConfig struct {
	Enabled     bool   `mapstructure:"REDIS_ENABLED"`
	Host        string `mapstructure:"REDIS_HOST" validate:"required_if=Enabled true"`
	Port        string `mapstructure:"REDIS_PORT" validate:"omitempty,numeric"`
	Password    string `mapstructure:"REDIS_PASSWORD"`
	DB          int    `mapstructure:"REDIS_DB" validate:"min=0"`
	MaxRetries  int    `mapstructure:"REDIS_MAX_RETRIES" validate:"min=0"`
	PoolSize    int    `mapstructure:"REDIS_POOL_SIZE" validate:"min=1"`
	MinIdleConn int    `mapstructure:"REDIS_MIN_IDLE_CONN" validate:"min=0"`
	CacheTTL    int    `mapstructure:"REDIS_CACHE_TTL" validate:"min=1"`

	DialTimeoutSeconds int `mapstructure:"REDIS_DIAL_TIMEOUT" validate:"min=0"`
	ReadTimeoutSeconds int `mapstructure:"REDIS_READ_TIMEOUT" validate:"min=0"`
	PoolTimeoutSeconds int `mapstructure:"REDIS_POOL_TIMEOUT" validate:"min=0"`
}

// RateLimitConfig holds configuration for the HTTP rate limiter
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	BurstCapacity     int     `mapstructure:"RATE_LIMIT_BURST" validate:"min=1"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.AutomaticEnv() // Read from environment variables

	// Set defaults first
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	// APP_ENV may come from app.env, so these are resolved after reading it
	setEnvDefaults(v)

	var config Config

	config.DB.Driver = v.GetString("DB_DRIVER")
	config.DB.URL = v.GetString("DB_URL")
	config.DB.Host = v.GetString("DB_HOST")
	config.DB.Port = v.GetString("DB_PORT")
	config.DB.User = v.GetString("DB_USER")
	config.DB.Password = v.GetString("DB_PASSWORD")
	config.DB.Name = v.GetString("DB_NAME")
	config.DB.SSLMode = v.GetString("DB_SSLMODE")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME")
	config.DB.ConnMaxIdleTime = v.GetInt("DB_CONN_MAX_IDLE_TIME")
	config.DB.AutoMigrate = v.GetBool("DB_AUTO_MIGRATE")

	config.App.Env = v.GetString("APP_ENV")
	config.App.HTTPPort = v.GetString("HTTP_PORT")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")
	config.App.WelcomeMessage = v.GetString("WELCOME_MESSAGE")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.DBLevel = v.GetString("LOG_DB_LEVEL")
	config.Logger.DBHideParams = v.GetBool("LOG_DB_HIDE_PARAMS")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	config.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTL = v.GetInt("REDIS_CACHE_TTL")
	config.Redis.DialTimeoutSeconds = v.GetInt("REDIS_DIAL_TIMEOUT")
	config.Redis.ReadTimeoutSeconds = v.GetInt("REDIS_READ_TIMEOUT")
	config.Redis.PoolTimeoutSeconds = v.GetInt("REDIS_POOL_TIMEOUT")

	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = v.GetInt("RATE_LIMIT_BURST")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("WELCOME_MESSAGE", "Welcome user, This is version for first demo")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "user_pool_service")
	v.SetDefault("DB_SSLMODE", "disable")

	// Connection pool defaults
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 1800)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 600)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("REDIS_CACHE_TTL", 60)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	v.SetDefault("REDIS_READ_TIMEOUT", 3)
	v.SetDefault("REDIS_POOL_TIMEOUT", 4)

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-pool-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
	v.SetDefault("LOG_DB_LEVEL", "")
	v.SetDefault("LOG_DB_HIDE_PARAMS", true)
}

// setEnvDefaults sets the logger defaults that depend on APP_ENV.
func setEnvDefaults(v *viper.Viper) {
	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
}

// Validate checks the loaded configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN returns the Data Source Name for the configured driver.
// DB_URL, when set, is used as is.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case DriverSQLite:
		return c.Name
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	}
}

// passwordParam matches password settings in key/value DSNs and URL queries.
var passwordParam = regexp.MustCompile(`(?i)\b(password|passwd|pwd)=('[^']*'|[^\s&]*)`)

func redactURL(raw string) string {
	out := raw
	if u, err := url.Parse(raw); err == nil && u.User != nil {
		out = u.Redacted()
	} else if at := strings.LastIndex(raw, "@"); at >= 0 && !strings.ContainsAny(raw[:at], " =") {
		// user:password@tcp(host)/db style DSNs do not parse as URLs
		if colon := strings.Index(raw[:at], ":"); colon >= 0 {
			out = raw[:colon] + ":xxxxx" + raw[at:]
		}
	}
	return passwordParam.ReplaceAllString(out, "${1}=xxxxx")
}

// RedactedDSN returns a datastore URL that is safe to log.
func (c *DatabaseConfig) RedactedDSN() string {
	if c.URL != "" {
		return redactURL(c.URL)
	}

	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("mysql://%s@%s:%s/%s", c.User, c.Host, c.Port, c.Name)
	case DriverSQLite:
		return "sqlite://" + c.Name
	default:
		return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", c.User, c.Host, c.Port, c.Name, c.SSLMode)
	}
}
