package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	Log    LogConfig
	Engine EngineConfig
	Worker WorkerConfig
	CORS   CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for document storage.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds LLM extraction engine settings.
type EngineConfig struct {
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
	// ChunkPages is the page window per extraction call; ChunkOverlap pages
	// are repeated between adjacent windows so statements split across a
	// boundary are seen whole at least once.
	ChunkPages   int `mapstructure:"chunk_pages"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	RetryMaxAttempts    int     `mapstructure:"retry_max_attempts"`
	RetryBackoffMS      int     `mapstructure:"retry_backoff_ms"`
	BreakerEnabled      bool    `mapstructure:"breaker_enabled"`
	BreakerMinRequests  int     `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64 `mapstructure:"breaker_failure_ratio"`
	BreakerOpenSecs     int     `mapstructure:"breaker_open_secs"`
}

// WorkerConfig holds extraction worker settings.
type WorkerConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	// Concurrency bounds jobs in flight; ChunkConcurrency bounds concurrent
	// engine calls within one job.
	Concurrency      int `mapstructure:"concurrency"`
	ChunkConcurrency int `mapstructure:"chunk_concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the FINSIGHT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "finsight")
	v.SetDefault("db.password", "finsight_secret")
	v.SetDefault("db.name", "finsight_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "finsight-documents")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Engine defaults
	v.SetDefault("engine.api_key", "")
	v.SetDefault("engine.default_model", "claude-sonnet-4-20250514")
	v.SetDefault("engine.timeout_secs", 120)
	v.SetDefault("engine.chunk_pages", 10)
	v.SetDefault("engine.chunk_overlap", 1)
	v.SetDefault("engine.retry_max_attempts", 3)
	v.SetDefault("engine.retry_backoff_ms", 500)
	v.SetDefault("engine.breaker_enabled", true)
	v.SetDefault("engine.breaker_min_requests", 10)
	v.SetDefault("engine.breaker_failure_ratio", 0.5)
	v.SetDefault("engine.breaker_open_secs", 30)

	// Worker defaults
	v.SetDefault("worker.poll_interval_secs", 10)
	v.SetDefault("worker.concurrency", 3)
	v.SetDefault("worker.chunk_concurrency", 4)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "FINSIGHT_SERVER_PORT",
		"server.read_timeout":          "FINSIGHT_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "FINSIGHT_SERVER_WRITE_TIMEOUT",
		"server.environment":           "FINSIGHT_SERVER_ENVIRONMENT",
		"db.host":                      "FINSIGHT_DB_HOST",
		"db.port":                      "FINSIGHT_DB_PORT",
		"db.user":                      "FINSIGHT_DB_USER",
		"db.password":                  "FINSIGHT_DB_PASSWORD",
		"db.name":                      "FINSIGHT_DB_NAME",
		"db.sslmode":                   "FINSIGHT_DB_SSLMODE",
		"db.max_open":                  "FINSIGHT_DB_MAX_OPEN",
		"db.max_idle":                  "FINSIGHT_DB_MAX_IDLE",
		"s3.region":                    "FINSIGHT_S3_REGION",
		"s3.bucket":                    "FINSIGHT_S3_BUCKET",
		"s3.endpoint":                  "FINSIGHT_S3_ENDPOINT",
		"s3.access_key":                "FINSIGHT_S3_ACCESS_KEY",
		"s3.secret_key":                "FINSIGHT_S3_SECRET_KEY",
		"log.level":                    "FINSIGHT_LOG_LEVEL",
		"log.format":                   "FINSIGHT_LOG_FORMAT",
		"engine.api_key":               "FINSIGHT_ENGINE_API_KEY",
		"engine.default_model":         "FINSIGHT_ENGINE_DEFAULT_MODEL",
		"engine.timeout_secs":          "FINSIGHT_ENGINE_TIMEOUT_SECS",
		"engine.chunk_pages":           "FINSIGHT_ENGINE_CHUNK_PAGES",
		"engine.chunk_overlap":         "FINSIGHT_ENGINE_CHUNK_OVERLAP",
		"engine.retry_max_attempts":    "FINSIGHT_ENGINE_RETRY_MAX_ATTEMPTS",
		"engine.retry_backoff_ms":      "FINSIGHT_ENGINE_RETRY_BACKOFF_MS",
		"engine.breaker_enabled":       "FINSIGHT_ENGINE_BREAKER_ENABLED",
		"engine.breaker_min_requests":  "FINSIGHT_ENGINE_BREAKER_MIN_REQUESTS",
		"engine.breaker_failure_ratio": "FINSIGHT_ENGINE_BREAKER_FAILURE_RATIO",
		"engine.breaker_open_secs":     "FINSIGHT_ENGINE_BREAKER_OPEN_SECS",
		"worker.poll_interval_secs":    "FINSIGHT_WORKER_POLL_INTERVAL_SECS",
		"worker.concurrency":           "FINSIGHT_WORKER_CONCURRENCY",
		"worker.chunk_concurrency":     "FINSIGHT_WORKER_CHUNK_CONCURRENCY",
		"cors.allowed_origins":         "FINSIGHT_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if FINSIGHT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FINSIGHT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Engine = EngineConfig{
		APIKey:              v.GetString("engine.api_key"),
		DefaultModel:        v.GetString("engine.default_model"),
		TimeoutSecs:         v.GetInt("engine.timeout_secs"),
		ChunkPages:          v.GetInt("engine.chunk_pages"),
		ChunkOverlap:        v.GetInt("engine.chunk_overlap"),
		RetryMaxAttempts:    v.GetInt("engine.retry_max_attempts"),
		RetryBackoffMS:      v.GetInt("engine.retry_backoff_ms"),
		BreakerEnabled:      v.GetBool("engine.breaker_enabled"),
		BreakerMinRequests:  v.GetInt("engine.breaker_min_requests"),
		BreakerFailureRatio: v.GetFloat64("engine.breaker_failure_ratio"),
		BreakerOpenSecs:     v.GetInt("engine.breaker_open_secs"),
	}
	cfg.Worker = WorkerConfig{
		PollIntervalSecs: v.GetInt("worker.poll_interval_secs"),
		Concurrency:      v.GetInt("worker.concurrency"),
		ChunkConcurrency: v.GetInt("worker.chunk_concurrency"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
